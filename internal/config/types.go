// Package config loads the generator configuration.
//
// Values are layered, lowest precedence first: built-in defaults, the
// constdefault.yaml file (explicit, or found upward from the working
// directory), CONSTDEFAULT_* environment variables and explicitly set
// command line flags.
package config

// Default values.
const (
	DefaultOutput        = "constdefault_gen.go"
	DefaultRuntimeImport = "github.com/sghaida/constdefault"
	DefaultTupleArity    = 12
	DefaultWorkers       = 4
)

// FileNames are the config file names searched for, in order.
var FileNames = []string{"constdefault.yaml", "constdefault.yml"}

// Config holds all generator options.
type Config struct {
	// Output is the name of the generated file in every package directory.
	Output string `koanf:"output"`

	// RuntimeImport is the import path of the package providing Defaulter and Of.
	RuntimeImport string `koanf:"runtime_import"`

	// TupleArity bounds the anonymous struct width treated as a tuple.
	TupleArity int `koanf:"tuple_arity"`

	// Check verifies field obligations before writing. When false,
	// unresolved fields are left to the Go compiler.
	Check bool `koanf:"check"`

	Verbose bool `koanf:"verbose"`

	// Workers bounds how many packages are processed at once.
	Workers int `koanf:"workers"`

	// Extern registers canonical defaults for types outside the catalogue.
	Extern []Extern `koanf:"extern"`

	// File is the config file that was loaded, if any.
	File string `koanf:"-"`
}

// Extern is one user supplied catalogue entry.
//
//	extern:
//	  - type: github.com/google/uuid.UUID
//	    default: "{}"
type Extern struct {
	// Type is the catalogue key: import path and type name joined by a dot.
	Type string `koanf:"type"`

	// Default is the default expression; "{}" (or empty) means a composite
	// literal of the type as written at the use site.
	Default string `koanf:"default"`

	// Generic marks types instantiated with type arguments.
	Generic bool `koanf:"generic"`

	// ArgsConform requires the type arguments of a generic type to conform.
	ArgsConform bool `koanf:"args_conform"`
}
