package images

import (
	"fmt"
	"log/slog"

	"github.com/listenupapp/recipes-server/internal/domain"
	"github.com/listenupapp/recipes-server/internal/id"
)

// Processor validates uploads and stores them under fresh file names.
type Processor struct {
	storage *Storage
	logger  *slog.Logger
}

// NewProcessor creates a new Processor instance.
func NewProcessor(storage *Storage, logger *slog.Logger) *Processor {
	return &Processor{
		storage: storage,
		logger:  logger,
	}
}

// Storage returns the underlying file storage.
func (p *Processor) Storage() *Storage {
	return p.storage
}

// Store validates data, writes it as <uuid>.<ext> and computes its BlurHash.
// Nothing is written when validation fails.
func (p *Processor) Store(data []byte) (*domain.RecipeImage, error) {
	decoded, err := Decode(data)
	if err != nil {
		return nil, err
	}

	hash, err := ComputeBlurHash(decoded.Image)
	if err != nil {
		// A missing placeholder is not worth failing the upload.
		if p.logger != nil {
			p.logger.Warn("failed to compute blurhash", "error", err)
		}
		hash = ""
	}

	name := id.ImageFileName(decoded.Ext)
	if err := p.storage.Save(name, decoded.Data); err != nil {
		return nil, fmt.Errorf("save image: %w", err)
	}

	if p.logger != nil {
		p.logger.Debug("stored image",
			"file", name,
			"mime", decoded.MIMEType,
			"size", len(decoded.Data),
		)
	}

	return &domain.RecipeImage{FileName: name, BlurHash: hash}, nil
}

// Remove deletes a stored image, logging instead of failing.
func (p *Processor) Remove(name string) {
	if name == "" {
		return
	}
	if err := p.storage.Delete(name); err != nil && p.logger != nil {
		p.logger.Warn("failed to delete image", "file", name, "error", err)
	}
}
