package services

import (
	"context"

	"github.com/conneroisu/ngssc/internal/build"
	"github.com/conneroisu/ngssc/internal/config"
	"github.com/conneroisu/ngssc/internal/errors"
	"github.com/conneroisu/ngssc/internal/logging"
)

// WrapService handles the wrap-aot business logic
type WrapService struct {
	config  *config.Config
	logger  logging.Logger
	wrapper *build.Wrapper
}

// NewWrapService creates a new wrap service
func NewWrapService(cfg *config.Config, logger logging.Logger) *WrapService {
	if logger == nil {
		logger = logging.Discard()
	}
	return &WrapService{
		config:  cfg,
		logger:  logger,
		wrapper: build.NewWrapper(logger),
	}
}

// Wrapper exposes the underlying wrapper so its spawn function and parser
// loader can be replaced.
func (s *WrapService) Wrapper() *build.Wrapper {
	return s.wrapper
}

// Wrap runs command as a wrapped ahead-of-time build
func (s *WrapService) Wrap(ctx context.Context, command []string) (*build.WrapResult, error) {
	if len(command) == 0 {
		return nil, errors.ErrNoCommand()
	}
	variant, err := s.config.ResolvedVariant()
	if err != nil {
		return nil, err
	}

	opts := build.WrapOptions{
		Directory:        s.config.Wrap.Directory,
		EnvironmentFile:  s.config.Wrap.EnvironmentFile,
		Dist:             s.config.Wrap.Dist,
		Variant:          variant,
		Tokenize:         s.config.Wrap.Tokenize,
		Command:          command,
		ArtifactPatterns: s.config.Wrap.ArtifactPatterns,
	}

	s.logger.Debug(ctx, "Starting wrapped build",
		"directory", opts.Directory, "environment_file", opts.EnvironmentFile,
		"variant", variant, "tokenize", opts.Tokenize, "command", command)

	return s.wrapper.Run(ctx, opts)
}
