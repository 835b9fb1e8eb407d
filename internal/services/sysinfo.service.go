package services

import (
	"context"
	"fmt"
	"sync"

	"sysmon/internal/models"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/sirupsen/logrus"
)

// DiskSource polls the mounted disks
type DiskSource interface {
	Disks(ctx context.Context) ([]models.Disk, error)
}

// GopsutilDiskSource reads partitions and their usage through gopsutil
type GopsutilDiskSource struct {
	// AllPartitions includes pseudo filesystems (proc, sysfs, ...)
	AllPartitions bool
}

// Disks returns usage for every partition whose usage can be read
func (s GopsutilDiskSource) Disks(ctx context.Context) ([]models.Disk, error) {
	partitions, err := disk.PartitionsWithContext(ctx, s.AllPartitions)
	if err != nil {
		return nil, fmt.Errorf("failed to list partitions: %w", err)
	}

	disks := make([]models.Disk, 0, len(partitions))
	for _, partition := range partitions {
		usage, err := disk.UsageWithContext(ctx, partition.Mountpoint)
		if err != nil {
			logrus.WithField("component", "disks").Warnf("Could not get disk usage for %s: %v", partition.Mountpoint, err)
			continue
		}
		disks = append(disks, diskFromStats(partition, usage))
	}

	return disks, nil
}

func diskFromStats(partition disk.PartitionStat, usage *disk.UsageStat) models.Disk {
	return models.Disk{
		Name:       partition.Device,
		MountPoint: partition.Mountpoint,
		Filesystem: partition.Fstype,
		Total:      usage.Total,
		Available:  usage.Free,
	}
}

// SystemInfo is the shared system-info handle. Callers hold its lock
// around RefreshDisks and while reading the snapshot.
type SystemInfo struct {
	mu     sync.Mutex
	source DiskSource
	disks  []models.Disk
}

// NewSystemInfo creates the handle and takes an initial snapshot. A failed
// initial poll is logged and leaves the snapshot empty.
func NewSystemInfo(ctx context.Context, source DiskSource) *SystemInfo {
	si := &SystemInfo{source: source}
	if err := si.RefreshDisks(ctx); err != nil {
		logrus.WithField("component", "disks").Warnf("Initial disk poll failed: %v", err)
	}
	return si
}

func (si *SystemInfo) Lock()   { si.mu.Lock() }
func (si *SystemInfo) Unlock() { si.mu.Unlock() }

// RefreshDisks re-polls the source. On error the previous snapshot is kept.
// The caller must hold the lock, except during construction.
func (si *SystemInfo) RefreshDisks(ctx context.Context) error {
	disks, err := si.source.Disks(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh disks: %w", err)
	}
	si.disks = disks
	return nil
}

// Disks returns a copy of the current snapshot. The caller must hold the lock.
func (si *SystemInfo) Disks() []models.Disk {
	out := make([]models.Disk, len(si.disks))
	copy(out, si.disks)
	return out
}

// Snapshot locks the handle and returns a copy of the current snapshot
func (si *SystemInfo) Snapshot() []models.Disk {
	si.Lock()
	defer si.Unlock()
	return si.Disks()
}
