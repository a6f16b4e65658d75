package embedding

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"go.uber.org/zap"

	"github.com/hyperjump/meetkant/pkg/utils"
)

// BadgerCache is a persistent embedding cache backed by BadgerDB. Vectors survive
// process restarts, so rebuilding an index after a corpus edit only embeds new text.
type BadgerCache struct {
	db     *badger.DB
	logger *zap.Logger
}

// badgerLogger routes badger's log output through zap.
type badgerLogger struct {
	s *zap.SugaredLogger
}

func (l badgerLogger) Errorf(msg string, args ...any)   { l.s.Errorf(msg, args...) }
func (l badgerLogger) Warningf(msg string, args ...any) { l.s.Warnf(msg, args...) }
func (l badgerLogger) Infof(msg string, args ...any)    { l.s.Debugf(msg, args...) }
func (l badgerLogger) Debugf(msg string, args ...any)   { l.s.Debugf(msg, args...) }

// OpenBadgerCache opens (creating if needed) a cache directory at path. An empty path
// opens an in-memory store.
func OpenBadgerCache(path string, logger *zap.Logger) (*BadgerCache, error) {
	logger = utils.OrNop(logger)
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, fmt.Errorf("embedding cache dir: %w", err)
		}
		opts = badger.DefaultOptions(path)
	}
	opts.Logger = badgerLogger{s: logger.Named("badger").Sugar()}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open embedding cache: %w", err)
	}
	return &BadgerCache{db: db, logger: logger}, nil
}

// Get returns the stored vector for key.
func (c *BadgerCache) Get(key string) ([]float32, bool) {
	var vec []float32
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			vec = decodeVector(val)
			return nil
		})
	})
	if err != nil || vec == nil {
		return nil, false
	}
	return vec, true
}

// Set stores value under key. Write failures are logged and otherwise ignored.
func (c *BadgerCache) Set(key string, value []float32) {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), encodeVector(value))
	})
	if err != nil {
		c.logger.Warn("embedding cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// Close closes the underlying database.
func (c *BadgerCache) Close() error {
	return c.db.Close()
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeVector(b []byte) []float32 {
	if len(b)%4 != 0 {
		return nil
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v
}
