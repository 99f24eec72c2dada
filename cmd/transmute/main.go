package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"transmute/internal/config"
	"transmute/internal/logging"
	"transmute/internal/transform"
	"transmute/internal/transport"
	"transmute/internal/variant"
)

func main() {
	if err := run(); err != nil {
		logging.L().Error("transmute", "err", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		specPath  = flag.String("f", "transforms.yml", "transforms file")
		name      = flag.String("t", "", "transformation to apply")
		component = flag.String("component", "local", "component the artifacts belong to")
		variantID = flag.String("variant", "", "variant identity; empty disables caching")
		project   = flag.Bool("project", false, "treat the variant as produced by the current build")
		deps      = flag.String("deps", "", "comma separated dependency artifacts")
	)
	flag.Parse()
	_ = godotenv.Load()
	logging.InitFromEnv()

	file, err := config.LoadTransforms(*specPath)
	if err != nil {
		return err
	}
	client, err := transport.Dial(file.Worker.Address, time.Duration(file.Worker.TimeoutMS)*time.Millisecond)
	if err != nil {
		return err
	}
	defer client.Close()

	reg, err := transform.NewRegistry(file, client)
	if err != nil {
		return err
	}
	r, ok := reg.Get(*name)
	if !ok {
		return fmt.Errorf("unknown transformation %q (have %s)", *name, strings.Join(reg.Names(), ", "))
	}

	src := variant.Resolved{Identifier: variant.Identifier(*variantID), Attributes: r.From}
	for _, p := range flag.Args() {
		src.Artifacts = append(src.Artifacts, variant.NewArtifact(p))
	}
	var resolvers transform.ResolverFactory = transform.NoDependencies
	if *deps != "" {
		var static transform.StaticDependencies
		for _, p := range strings.Split(*deps, ",") {
			static = append(static, variant.NewArtifact(strings.TrimSpace(p)))
		}
		resolvers = transform.ResolverFactoryFunc(func(variant.ComponentIdentifier) (transform.DependencyResolver, error) {
			return static, nil
		})
	}

	factory := transform.NewVariantFactory(file.Parallelism)
	get := factory.TransformedExternalArtifacts
	if *project {
		get = factory.TransformedProjectArtifacts
	}
	set, err := get(variant.ComponentIdentifier(*component), src, r.To, r.Transformation, resolvers)
	if err != nil {
		return err
	}
	out, err := set.Artifacts(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("%s -> %s\n", r.From, r.To)
	for _, a := range out {
		fmt.Println(a.Path)
	}
	return nil
}

