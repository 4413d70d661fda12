package configparser

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

var ErrNoFilePath = errors.New("no file path provided")

// ${VAR} or ${VAR:-default}
var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// LoadAndParseYaml exports the YAML file into the environment and then fills cfg
// from the environment. A missing file is not an error: the struct defaults and
// the process environment are used instead.
func LoadAndParseYaml(filepath string, cfg any) error {
	if err := LoadYamlFile(filepath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return Parse(cfg)
}

// Parse fills cfg from environment variables using envconfig tags.
func Parse(cfg any) error {
	if err := envconfig.Process("", cfg); err != nil {
		return fmt.Errorf("could not parse environment: %w", err)
	}
	return nil
}

// LoadYamlFile reads a YAML file and loads variables into the environment.
// Nested keys are joined with "_" and upper-cased, so database.host becomes
// DATABASE_HOST. Variables already present in the environment are kept.
func LoadYamlFile(filepath string) error {
	if filepath == "" {
		return ErrNoFilePath
	}

	data, err := os.ReadFile(filepath)
	if err != nil {
		return fmt.Errorf("could not open YAML file: %w", err)
	}

	vars, err := Flatten(data)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if _, ok := os.LookupEnv(key); ok {
			continue
		}
		if err := os.Setenv(key, vars[key]); err != nil {
			return fmt.Errorf("could not set env var %s: %w", key, err)
		}
	}

	return nil
}

// Flatten turns a YAML document into environment-style key/value pairs.
func Flatten(data []byte) (map[string]string, error) {
	var root map[string]any
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("error reading YAML file: %w", err)
	}

	out := make(map[string]string)
	flatten("", root, out)
	return out, nil
}

func flatten(prefix string, node any, out map[string]string) {
	switch v := node.(type) {
	case map[string]any:
		for k, child := range v {
			key := strings.ToUpper(k)
			if prefix != "" {
				key = prefix + "_" + key
			}
			flatten(key, child, out)
		}
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			items = append(items, expand(fmt.Sprint(item)))
		}
		out[prefix] = strings.Join(items, ",")
	case nil:
		// "key:" with no value does not represent a variable
	default:
		out[prefix] = expand(fmt.Sprint(v))
	}
}

func expand(value string) string {
	return envRef.ReplaceAllStringFunc(value, func(ref string) string {
		m := envRef.FindStringSubmatch(ref)
		if env := os.Getenv(m[1]); env != "" {
			return env
		}
		return m[2]
	})
}
