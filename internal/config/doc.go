// Package config defines the format-agnostic configuration model for the
// adroit toolchain, along with the Loader interface that fills it from a
// project file.
//
// The `config.Model` only carries raw values. Validation and conversion into
// typed settings happen in the app package, after command-line flags have
// been applied on top of the loaded model. Concrete loaders, such as the HCL
// one, are provided in separate packages.
package config
