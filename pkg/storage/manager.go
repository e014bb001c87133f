package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shashiranjanraj/muestras/config"
	"github.com/shashiranjanraj/muestras/pkg/logger"
)

var (
	managerMu   sync.RWMutex
	disks       = map[string]Disk{}
	defaultDisk = "local"
)

// Connect boots the configured disks. The local disk always exists; the S3
// disk is added when S3_BUCKET is set. A broken S3 configuration is logged
// and leaves only the local disk.
func Connect(ctx context.Context) error {
	RegisterDisk("local", NewLocal(config.StorageLocalRoot()))

	if config.StorageS3Bucket() != "" {
		d, err := NewS3(ctx, S3Config{
			Bucket:   config.StorageS3Bucket(),
			Region:   config.StorageS3Region(),
			Key:      config.StorageS3Key(),
			Secret:   config.StorageS3Secret(),
			Endpoint: config.StorageS3Endpoint(),
		})
		if err != nil {
			logger.WithCtx(ctx).Warn("storage: s3 disk disabled", "error", err)
		} else {
			RegisterDisk("s3", d)
		}
	}

	managerMu.Lock()
	defaultDisk = config.StorageDefault()
	_, ok := disks[defaultDisk]
	managerMu.Unlock()
	if !ok {
		return fmt.Errorf("storage: default disk %q is not configured", defaultDisk)
	}
	return nil
}

// Use returns the named disk; an empty name is the default disk.
func Use(name string) (Disk, error) {
	managerMu.RLock()
	defer managerMu.RUnlock()
	if name == "" {
		name = defaultDisk
	}
	d, ok := disks[name]
	if !ok {
		return nil, fmt.Errorf("storage: disk %q is not configured", name)
	}
	return d, nil
}

// RegisterDisk plugs in a Disk under name.
func RegisterDisk(name string, d Disk) {
	managerMu.Lock()
	disks[name] = d
	managerMu.Unlock()
}

// Names lists the registered disks.
func Names() []string {
	managerMu.RLock()
	defer managerMu.RUnlock()
	out := make([]string, 0, len(disks))
	for n := range disks {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
