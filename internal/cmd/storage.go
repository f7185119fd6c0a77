package cmd

import (
	"context"
	"io"
	"sync"

	"github.com/salmonumbrella/csvprep/internal/source"
)

// credentialedObjectStore defers credential lookup until an s3:// locator
// is actually opened, so commands that never touch the object store never
// open the keyring.
type credentialedObjectStore struct {
	cfg     source.ObjectStoreConfig
	resolve func() *source.StaticCredentials

	once  sync.Once
	store *source.ObjectStore
}

func (s *credentialedObjectStore) Open(ctx context.Context, loc source.Locator) (io.ReadCloser, error) {
	s.once.Do(func() {
		cfg := s.cfg
		if s.resolve != nil {
			cfg.Credentials = s.resolve()
		}
		s.store = source.NewObjectStore(cfg)
	})
	return s.store.Open(ctx, loc)
}
