// Copyright 2026 GraphDiseaseYOLOv8 Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package graph builds detector models from YAML descriptions through a
// registry of layer constructors.
//
// Example:
//
//	desc, err := graph.LoadFile("configs/grape-simam-bifpn.yaml")
//	if err != nil {
//	    return err
//	}
//	model, err := graph.NewBuilder(graph.NewRegistry[*cpu.Backend]()).Build(desc, cpu.New())
//	if err != nil {
//	    return err
//	}
//	outputs := model.Forward(x)
package graph

import (
	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/graph"
	"github.com/rainfishy/GraphDiseaseYOLOv8/internal/tensor"
)

// Layer is a node of a built model.
type Layer[B tensor.Backend] = graph.Layer[B]

// BuildContext is what a Constructor sees of the model being built.
type BuildContext[B tensor.Backend] = graph.BuildContext[B]

// Constructor creates a layer from its build context.
type Constructor[B tensor.Backend] = graph.Constructor[B]

// Registry maps module names to constructors.
type Registry[B tensor.Backend] = graph.Registry[B]

// NewRegistry returns a registry holding the built-in modules.
func NewRegistry[B tensor.Backend]() *Registry[B] {
	return graph.NewRegistry[B]()
}

// NewEmptyRegistry returns a registry with no modules.
func NewEmptyRegistry[B tensor.Backend]() *Registry[B] {
	return graph.NewEmptyRegistry[B]()
}

// Description is a YAML model description.
type Description = graph.Description

// LayerSpec describes one layer of a Description.
type LayerSpec = graph.LayerSpec

// From lists the inputs of a layer.
type From = graph.From

// LossSpec selects the training criteria.
type LossSpec = graph.LossSpec

// Parse decodes and validates a description.
func Parse(data []byte) (*Description, error) {
	return graph.Parse(data)
}

// LoadFile reads and parses a description file.
func LoadFile(path string) (*Description, error) {
	return graph.LoadFile(path)
}

// Builder turns descriptions into models.
type Builder[B tensor.Backend] = graph.Builder[B]

// Option configures a Builder.
type Option = graph.Option

// WithLogger makes the builder report each constructed layer.
var WithLogger = graph.WithLogger

// NewBuilder creates a builder.
func NewBuilder[B tensor.Backend](registry *Registry[B], opts ...Option) *Builder[B] {
	return graph.NewBuilder(registry, opts...)
}

// Model is a built layer graph.
type Model[B tensor.Backend] = graph.Model[B]

// Criteria holds the training losses named by a description.
type Criteria[B tensor.Backend] = graph.Criteria[B]
