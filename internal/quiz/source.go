package quiz

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
)

// DefaultEnvVar holds the serialized quote list when no other source is set.
const DefaultEnvVar = "QUIZ_PHRASES"

var (
	ErrSourceUnavailable = errors.New("quote source unavailable")
	ErrMalformedSource   = errors.New("quote source malformed")
)

//go:embed json/phrases.json
var embeddedPhrasesJSON []byte

// Source supplies the full list of quotes for a session.
type Source interface {
	Records(ctx context.Context) ([]*Record, error)
}

// Load reads every record from source. It never fails: a missing or broken
// source is logged and yields an empty slice. Records with an empty phrase or
// author are dropped.
func Load(ctx context.Context, logger *zap.SugaredLogger, source Source) []*Record {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	if source == nil {
		logger.Warnw("no quote source configured", "err", ErrSourceUnavailable)
		return []*Record{}
	}

	records, err := source.Records(ctx)
	if err != nil {
		logger.Errorw("failed to load quotes", "err", err)
		return []*Record{}
	}

	valid := make([]*Record, 0, len(records))
	for idx, r := range records {
		if !r.Valid() {
			logger.Warnw("skipping invalid quote", "index", idx)
			continue
		}
		valid = append(valid, r)
	}

	logger.Infow("loaded quotes", "count", len(valid), "skipped", len(records)-len(valid))
	return valid
}

func decodeRecords(data []byte) ([]*Record, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, ErrSourceUnavailable
	}

	var records []*Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSource, err)
	}
	return records, nil
}

// LiteralSource is a JSON array of quotes held in memory, typically a value
// already resolved by the configuration layer.
type LiteralSource string

func (s LiteralSource) Records(_ context.Context) ([]*Record, error) {
	return decodeRecords([]byte(s))
}

// EnvSource reads the JSON array of quotes from an environment variable.
type EnvSource struct {
	Name string
}

func NewEnvSource(name string) *EnvSource {
	if name == "" {
		name = DefaultEnvVar
	}
	return &EnvSource{Name: name}
}

func (s *EnvSource) Records(_ context.Context) ([]*Record, error) {
	value, ok := os.LookupEnv(s.Name)
	if !ok {
		return nil, fmt.Errorf("%w: $%s not set", ErrSourceUnavailable, s.Name)
	}

	records, err := decodeRecords([]byte(value))
	if err != nil {
		return nil, fmt.Errorf("$%s: %w", s.Name, err)
	}
	return records, nil
}

// FileSource reads the JSON array of quotes from a file.
type FileSource struct {
	Path string
}

func (s *FileSource) Records(_ context.Context) ([]*Record, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
		}
		return nil, fmt.Errorf("failed to read %s: %w", s.Path, err)
	}

	records, err := decodeRecords(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Path, err)
	}
	return records, nil
}

// EmbeddedSource serves the quote set compiled into the binary.
type EmbeddedSource struct{}

func (EmbeddedSource) Records(_ context.Context) ([]*Record, error) {
	return decodeRecords(embeddedPhrasesJSON)
}
