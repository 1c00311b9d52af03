// Package main provides the grapenet CLI.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/backend/cpu"
	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/graph"
	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/tensor"
	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/vision"
)

const version = "v0.1.0"

// defaultSize is the input resolution of forward without an explicit size.
const defaultSize = 64

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()

	if err := run(os.Args[1:], os.Stdout, logger); err != nil {
		logger.Error().Err(err).Msg("grapenet failed")
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer, logger zerolog.Logger) error {
	if len(args) == 0 {
		usage(stdout)
		return nil
	}

	switch args[0] {
	case "version":
		fmt.Fprintf(stdout, "grapenet %s\n", version)
		return nil
	case "modules":
		for _, name := range graph.NewRegistry[*cpu.CPUBackend]().Names() {
			fmt.Fprintln(stdout, name)
		}
		return nil
	case "build":
		if len(args) != 2 {
			return errors.New("usage: grapenet build <model.yaml>")
		}
		model, err := build(args[1], logger)
		if err != nil {
			return err
		}
		fmt.Fprint(stdout, model.Summary())
		return nil
	case "init":
		if len(args) != 3 {
			return errors.New("usage: grapenet init <model.yaml> <weights.safetensors>")
		}
		model, err := build(args[1], logger)
		if err != nil {
			return err
		}
		if err := model.SaveWeights(args[2]); err != nil {
			return err
		}
		logger.Info().Str("path", args[2]).Int("tensors", len(model.StateDict())).Msg("weights saved")
		return nil
	case "forward":
		return forward(args[1:], stdout, logger)
	default:
		usage(stdout)
		return errors.Errorf("unknown command %q", args[0])
	}
}

func usage(w io.Writer) {
	fmt.Fprintf(w, "grapenet %s - grape disease detector layers\n\n", version)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  version                                           Show version")
	fmt.Fprintln(w, "  modules                                           List registered modules")
	fmt.Fprintln(w, "  build <model.yaml>                                Build a model and print its summary")
	fmt.Fprintln(w, "  init <model.yaml> <weights.safetensors>           Save freshly initialised weights")
	fmt.Fprintln(w, "  forward [-weights f] <model.yaml> [image] [size]  Run one forward pass")
}

func build(path string, logger zerolog.Logger) (*graph.Model[*cpu.CPUBackend], error) {
	desc, err := graph.LoadFile(path)
	if err != nil {
		return nil, err
	}
	builder := graph.NewBuilder(graph.NewRegistry[*cpu.CPUBackend](), graph.WithLogger(logger))
	return builder.Build(desc, cpu.New())
}

func forward(args []string, stdout io.Writer, logger zerolog.Logger) error {
	fs := flag.NewFlagSet("forward", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	weights := fs.String("weights", "", "SafeTensors checkpoint to load")
	if err := fs.Parse(args); err != nil {
		return errors.Wrap(err, "forward")
	}
	args = fs.Args()
	if len(args) < 1 || len(args) > 3 {
		return errors.New("usage: grapenet forward [-weights f] <model.yaml> [image] [size]")
	}

	model, err := build(args[0], logger)
	if err != nil {
		return err
	}
	if *weights != "" {
		if err := model.LoadWeights(*weights); err != nil {
			return err
		}
		logger.Info().Str("path", *weights).Msg("weights loaded")
	}

	size := defaultSize
	if len(args) == 3 {
		size, err = strconv.Atoi(args[2])
		if err != nil || size <= 0 {
			return errors.Errorf("invalid size %q", args[2])
		}
	}

	backend := cpu.New()
	var x *tensor.Tensor[*cpu.CPUBackend]
	if len(args) >= 2 {
		if model.InChannels() != vision.Channels {
			return errors.Errorf("model %s takes %d input channels, images have %d", model.Name(), model.InChannels(), vision.Channels)
		}
		x, err = vision.LoadImage(args[1], size, backend)
		if err != nil {
			return err
		}
		logger.Info().Str("image", args[1]).Int("size", size).Msg("image loaded")
	} else {
		x = tensor.Rand(tensor.Shape{1, model.InChannels(), size, size}, backend)
		logger.Info().Int("size", size).Msg("random input")
	}

	start := time.Now()
	outputs := model.Forward(x)
	logger.Info().Dur("elapsed", time.Since(start)).Msg("forward done")

	for i, out := range outputs {
		fmt.Fprintf(stdout, "output %d: %v\n", i, out.Shape())
	}
	return nil
}
