// Package archive exposes the document archive abstraction and backend
// selection used to retain terminal manifest snapshots.
package archive

import (
	"context"
	"fmt"
	"os"

	archivecore "manifestcore/internal/archive/core"
	fsstore "manifestcore/internal/infra/archive/fs"
	memorystore "manifestcore/internal/infra/archive/memory"
	s3store "manifestcore/internal/infra/archive/s3"
)

// Aliases re-exporting the core archive contract.
type (
	// Store is the archive backend contract.
	Store = archivecore.Store
	// Driver identifies a backend implementation.
	Driver = archivecore.Driver
	// Info describes a stored archive document.
	Info = archivecore.Info
	// PutOptions holds optional Put parameters.
	PutOptions = archivecore.PutOptions
	// SignedURLOptions holds options for pre-signed URL generation.
	SignedURLOptions = archivecore.SignedURLOptions
)

// Re-exported driver identifiers.
const (
	DriverFilesystem = archivecore.DriverFilesystem
	DriverS3         = archivecore.DriverS3
	DriverMemory     = archivecore.DriverMemory
)

// ErrUnsupported mirrors the core sentinel for optional capabilities.
var ErrUnsupported = archivecore.ErrUnsupported

// NewMemory returns an in-memory archive store.
func NewMemory() Store { return memorystore.New() }

// NewFilesystem returns a filesystem archive store rooted at path.
func NewFilesystem(root string) (Store, error) { return fsstore.New(root) }

// NewS3FromEnv constructs an S3 archive store from process environment.
func NewS3FromEnv(ctx context.Context) (Store, error) { return s3store.OpenFromEnv(ctx) }

// Open selects an archive backend using environment variables.
//
//	MANIFESTCORE_ARCHIVE_DRIVER: fs|s3|memory (default fs)
//	MANIFESTCORE_ARCHIVE_FS_ROOT: root dir for the fs driver
//	MANIFESTCORE_ARCHIVE_S3_*: see the s3 backend
func Open(ctx context.Context) (Store, error) {
	driver := os.Getenv("MANIFESTCORE_ARCHIVE_DRIVER")
	if driver == "" {
		driver = string(DriverFilesystem)
	}
	switch Driver(driver) {
	case DriverFilesystem:
		return NewFilesystem(os.Getenv("MANIFESTCORE_ARCHIVE_FS_ROOT"))
	case DriverMemory:
		return NewMemory(), nil
	case DriverS3:
		return NewS3FromEnv(ctx)
	default:
		return nil, fmt.Errorf("unknown archive driver %s", driver)
	}
}
