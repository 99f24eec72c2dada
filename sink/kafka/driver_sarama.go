package kafka

import (
	"errors"
	"fmt"
	"sync"

	"github.com/IBM/sarama"
	"google.golang.org/protobuf/encoding/protojson"

	"transmute/internal/logging"
	"transmute/sink"
)

type Config struct {
	Brokers []string
	Topic   string
	Acks    int16 // 0,1,-1
	Version string
}

// newProducer is replaced in tests.
var newProducer = sarama.NewAsyncProducer

type driver struct {
	cfg Config
	p   sarama.AsyncProducer

	once sync.Once
	wg   sync.WaitGroup
}

func (d *driver) Configure(c any) error {
	cfg, ok := c.(Config)
	if !ok {
		return fmt.Errorf("kafka-sink: want Config, got %T", c)
	}
	if cfg.Topic == "" {
		return errors.New("kafka-sink: topic is required")
	}
	d.cfg = cfg

	sc := sarama.NewConfig()
	sc.ClientID = "transmute-workerd"
	sc.Producer.RequiredAcks = sarama.RequiredAcks(cfg.Acks)
	sc.Producer.Return.Errors = true
	if cfg.Version != "" {
		v, err := sarama.ParseKafkaVersion(cfg.Version)
		if err != nil {
			return fmt.Errorf("kafka-sink: %w", err)
		}
		sc.Version = v
	}
	p, err := newProducer(cfg.Brokers, sc)
	if err != nil {
		return err
	}
	d.p = p

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for perr := range p.Errors() {
			logging.L().Warn("kafka-sink: publish failed", "topic", d.cfg.Topic, "err", perr.Err)
		}
	}()
	return nil
}

func (d *driver) Push(e sink.Event) error {
	if d.p == nil {
		return errors.New("kafka-sink: not configured")
	}
	value, err := protojson.Marshal(e.Struct())
	if err != nil {
		return err
	}
	d.p.Input() <- &sarama.ProducerMessage{
		Topic: d.cfg.Topic,
		Key:   sarama.StringEncoder(e.Action),
		Value: sarama.ByteEncoder(value),
	}
	return nil
}

func (d *driver) Close() error {
	var err error
	d.once.Do(func() {
		if d.p == nil {
			return
		}
		err = d.p.Close()
		d.wg.Wait()
	})
	return err
}

func init() { sink.Register("kafka", func() sink.Adapter { return &driver{} }) }
