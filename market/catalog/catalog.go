// Package catalog provides product publishing and browsing: a seller
// uploads an image and a downloadable file, visitors list products on
// the seller's public profile.
package catalog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/stallkit/stall/web"
)

// Product is one published digital good. Price is in cents.
type Product struct {
	ID          string    `json:"id"`
	SellerID    string    `json:"seller_id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	PriceCents  int64     `json:"price_cents"`
	ImagePath   string    `json:"image_path"`
	FilePath    string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// PublishInput is the validated product payload.
type PublishInput struct {
	SellerID    string `validate:"required"`
	Name        string `validate:"required,min=3,max=120"`
	Description string `validate:"max=2000"`
	PriceCents  int64  `validate:"required,gt=0"`
}

// Repository persists products.
type Repository interface {
	Create(p *Product) error
	ByID(id string) (*Product, bool)
	BySlug(sellerID, slug string) (*Product, bool)
	BySeller(sellerID string) []*Product
	Delete(id string) bool
}

// ErrNotFound is returned when a product does not exist.
var ErrNotFound = fmt.Errorf("product not found")

// MemoryRepository is an in-process product store preserving
// publication order per seller.
type MemoryRepository struct {
	mu       sync.RWMutex
	byID     map[string]*Product
	bySeller map[string][]*Product
}

// NewMemoryRepository creates an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:     make(map[string]*Product),
		bySeller: make(map[string][]*Product),
	}
}

// Create implements Repository.
func (r *MemoryRepository) Create(p *Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.bySeller[p.SellerID] {
		if existing.Slug == p.Slug {
			return fmt.Errorf("slug %q already used by seller", p.Slug)
		}
	}
	r.byID[p.ID] = p
	r.bySeller[p.SellerID] = append(r.bySeller[p.SellerID], p)
	return nil
}

// ByID implements Repository.
func (r *MemoryRepository) ByID(id string) (*Product, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	return p, ok
}

// BySlug implements Repository.
func (r *MemoryRepository) BySlug(sellerID, slug string) (*Product, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.bySeller[sellerID] {
		if p.Slug == slug {
			return p, true
		}
	}
	return nil, false
}

// BySeller implements Repository.
func (r *MemoryRepository) BySeller(sellerID string) []*Product {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Product, len(r.bySeller[sellerID]))
	copy(out, r.bySeller[sellerID])
	return out
}

// Delete implements Repository.
func (r *MemoryRepository) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return false
	}
	delete(r.byID, id)
	list := r.bySeller[p.SellerID]
	for i, candidate := range list {
		if candidate.ID == id {
			r.bySeller[p.SellerID] = append(list[:i], list[i+1:]...)
			break
		}
	}
	return true
}

// Service publishes products, moving uploaded files from their
// spooled temp location into the uploads dir.
type Service struct {
	repo       Repository
	uploadsDir string
	validate   *validator.Validate
}

// NewService creates a catalog service storing uploads under dir.
func NewService(repo Repository, uploadsDir string) *Service {
	return &Service{
		repo:       repo,
		uploadsDir: uploadsDir,
		validate:   validator.New(),
	}
}

// Publish validates the input, stores the uploaded image and download
// file, and records the product. Either upload may be nil; upload
// validation policy beyond "move what was sent" lives with callers.
func (s *Service) Publish(in PublishInput, image, download *web.FileHeader) (*Product, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("publish: %w", err)
	}

	p := &Product{
		ID:          uuid.NewString(),
		SellerID:    in.SellerID,
		Name:        in.Name,
		Slug:        Slugify(in.Name),
		Description: in.Description,
		PriceCents:  in.PriceCents,
		CreatedAt:   time.Now(),
	}

	if image != nil {
		path, err := s.store(p.ID, "image", image)
		if err != nil {
			return nil, err
		}
		p.ImagePath = path
	}
	if download != nil {
		path, err := s.store(p.ID, "file", download)
		if err != nil {
			return nil, err
		}
		p.FilePath = path
	}

	if err := s.repo.Create(p); err != nil {
		// A rejected record must not leave its stored uploads behind.
		if p.ImagePath != "" || p.FilePath != "" {
			os.RemoveAll(filepath.Join(s.uploadsDir, p.ID))
		}
		return nil, err
	}
	return p, nil
}

// store moves a spooled upload into the uploads dir under a
// product-scoped name.
func (s *Service) store(productID, kind string, fh *web.FileHeader) (string, error) {
	dir := filepath.Join(s.uploadsDir, productID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("store upload: %w", err)
	}
	dest := filepath.Join(dir, kind+filepath.Ext(fh.Filename))

	if err := os.Rename(fh.TempPath, dest); err != nil {
		// Rename fails across filesystems; fall back to a copy.
		if cerr := copyFile(fh.TempPath, dest); cerr != nil {
			return "", fmt.Errorf("store upload: %w", cerr)
		}
		os.Remove(fh.TempPath)
	}
	return dest, nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a URL slug from a product name.
func Slugify(name string) string {
	slug := slugStrip.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}
