package srv

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"runtime"
	"strings"

	"github.com/godist/artm/core/regularizer"
	fs "github.com/wangkuiyi/file"
)

// Config contains configuration information required by master.
type Config struct {
	// DiskPath is the directory of batch files.  If it is empty,
	// batches are added at runtime by AddBatch.
	DiskPath string

	// DictionaryFile, if not empty, is loaded and registered under
	// the name stored in it.  The model is initialized from the
	// dictionary named by InitialDictionary, or the dictionary in
	// DictionaryFile if InitialDictionary is empty.
	DictionaryFile    string
	InitialDictionary string

	// ModelFile is where the trained Phi matrix is saved.
	ModelFile string

	// Either TopicNames or NumTopics must be specified.  If only
	// NumTopics is, topics are named topic_0, topic_1, ...
	TopicNames []string
	NumTopics  int

	// NumProcessors defaults to the number of CPUs.
	NumProcessors     int
	NumDocumentPasses int

	Regularizers []regularizer.Config

	// Seed of the random initialization of Phi.
	Seed int64
}

const DefaultNumDocumentPasses = 10

func (c *Config) Validate() error {
	if len(c.TopicNames) == 0 {
		if c.NumTopics <= 0 {
			return errors.New("Either c.TopicNames or c.NumTopics must be specified")
		}
		c.TopicNames = make([]string, c.NumTopics)
		for i := range c.TopicNames {
			c.TopicNames[i] = fmt.Sprintf("topic_%d", i)
		}
	} else if c.NumTopics == 0 {
		c.NumTopics = len(c.TopicNames)
	} else if c.NumTopics != len(c.TopicNames) {
		return fmt.Errorf("c.NumTopics (%d) != len(c.TopicNames) (%d)",
			c.NumTopics, len(c.TopicNames))
	}

	msg := ""
	seen := make(map[string]bool)
	for _, t := range c.TopicNames {
		if seen[t] {
			msg += fmt.Sprintf("Duplicated topic name %s\n", t)
		}
		seen[t] = true
	}
	seen = make(map[string]bool)
	for i, r := range c.Regularizers {
		if len(r.Name) == 0 {
			msg += fmt.Sprintf("Regularizers[%d]: Name must be specified\n", i)
		} else if seen[r.Name] {
			msg += fmt.Sprintf("Regularizers[%d]: duplicated name %s\n", i, r.Name)
		}
		seen[r.Name] = true
		if len(r.Type) == 0 {
			msg += fmt.Sprintf("Regularizers[%d]: Type must be specified\n", i)
		}
	}
	if len(msg) > 0 {
		return errors.New(msg)
	}

	if c.NumProcessors <= 0 {
		c.NumProcessors = runtime.NumCPU()
	}
	if c.NumDocumentPasses <= 0 {
		c.NumDocumentPasses = DefaultNumDocumentPasses
	}
	return nil
}

// Encode returns the JSON-encoded Config, which can be used as the
// value of command line flag -config.
func (c *Config) Encode() (string, error) {
	var buf bytes.Buffer
	if e := json.NewEncoder(&buf).Encode(c); e != nil {
		return "", fmt.Errorf("JSON encoding failed: %v", e)
	}
	return buf.String(), nil
}

// String is required by interface flag.Var
func (c *Config) String() string {
	if b, e := json.MarshalIndent(c, " ", "  "); e == nil {
		return string(b)
	}
	return ""
}

// Set is required by interface flag.Var.  It decode a JSON encoded
// Config variable.
func (c *Config) Set(value string) error {
	e := json.NewDecoder(strings.NewReader(value)).Decode(c)
	if e != nil {
		return fmt.Errorf("Error decoding JSON: %v", e)
	}
	return nil
}

// RegisterAsFlag registers a flag named "config" which accepts a JSON
// encoded Config object as the value.  This function must be called
// before flag.Parse().
func (c *Config) RegisterAsFlag() {
	flag.Var(c, "config", "JSON encoded configuration")
}

func LoadConfig(filename string) (*Config, error) {
	f, e := fs.Open(filename)
	if e != nil {
		return nil, fmt.Errorf("Cannot open config file %s: %v", filename, e)
	}
	defer f.Close()

	cfg := new(Config)
	if e = json.NewDecoder(f).Decode(cfg); e != nil {
		return nil, fmt.Errorf("Parse JSON config file: %v", e)
	}

	if e := cfg.Validate(); e != nil {
		return nil, fmt.Errorf("Invalid configuration: %v", e)
	}
	return cfg, nil
}
