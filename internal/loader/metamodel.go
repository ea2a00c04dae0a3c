package loader

import (
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"

	"github.com/roach88/modelq/internal/compiler"
	"github.com/roach88/modelq/internal/ir"
)

// Metamodel is a loaded and compiled metamodel.
type Metamodel struct {
	Schema    *ir.Schema
	CUEValue  cue.Value // The raw CUE value for additional processing
	Path      string
	FileCount int // Number of CUE files read
}

// LoadMetamodel loads a metamodel from a single .cue file or from a
// directory of CUE files (one package), and compiles it.
func LoadMetamodel(path string) (*Metamodel, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("metamodel not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing metamodel: %v", err)}
	}

	var (
		value cue.Value
		count int
	)
	if info.IsDir() {
		value, count, err = buildDir(path)
	} else {
		value, err = buildFile(path)
		count = 1
	}
	if err != nil {
		return nil, err
	}

	schema, err := compiler.CompileSchema(value)
	if err != nil {
		return nil, convertCompileError(err, path)
	}
	if schema.Name == "" {
		schema.Name = metamodelName(path)
	}

	return &Metamodel{
		Schema:    schema,
		CUEValue:  value,
		Path:      path,
		FileCount: count,
	}, nil
}

// buildDir loads the CUE package in dir.
func buildDir(dir string) (cue.Value, int, error) {
	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return cue.Value{}, 0, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err), Path: dir}
	}
	if len(cueFiles) == 0 {
		return cue.Value{}, 0, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}
	}

	ctx := cuecontext.New()
	cfg := &load.Config{Dir: dir}
	instances := load.Instances([]string{"."}, cfg)
	if len(instances) == 0 {
		return cue.Value{}, 0, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded", Path: dir}
	}

	inst := instances[0]
	if inst.Err != nil {
		return cue.Value{}, 0, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err), Path: dir}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return cue.Value{}, 0, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err), Path: dir}
	}
	return value, len(cueFiles), nil
}

// buildFile compiles a single CUE file.
func buildFile(path string) (cue.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cue.Value{}, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading metamodel: %v", err), Path: path}
	}

	ctx := cuecontext.New()
	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return cue.Value{}, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err), Path: path}
	}
	return value, nil
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// metamodelName derives a schema name from a path: "specs/projects.cue" and
// "specs/projects/" both become "projects".
func metamodelName(path string) string {
	base := filepath.Base(filepath.Clean(path))
	return base[:len(base)-len(filepath.Ext(base))]
}
