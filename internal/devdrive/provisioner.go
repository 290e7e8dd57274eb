// Package devdrive provisions a VHDX-backed dev volume for a CI job and
// exports the variables that move build tool caches onto it.
//
// Provisioning is a forward-only sequence: create, mount, initialize,
// partition, format. The first failing step aborts the run. Nothing is
// cleaned up on failure; the CI host reclaims the disk when the job ends.
package devdrive

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/rs/zerolog/log"

	"github.com/javanstorm/devdrive/internal/disk"
	"github.com/javanstorm/devdrive/internal/envfile"
	"github.com/javanstorm/devdrive/internal/timing"
)

// Disk performs the OS-level steps. Each call reads and fills in v.
type Disk interface {
	Create(ctx context.Context, v *disk.Volume) error
	Mount(ctx context.Context, v *disk.Volume) error
	Initialize(ctx context.Context, v *disk.Volume) error
	Partition(ctx context.Context, v *disk.Volume) error
	Format(ctx context.Context, v *disk.Volume) error
}

// Request describes the volume to provision.
type Request struct {
	SizeBytes   uint64
	BackingPath string
	FileSystem  disk.FileSystem
	Dynamic     bool
	DevDrive    bool
}

// Result is a provisioned volume and what was exported for it.
type Result struct {
	Volume    *disk.Volume
	MountPath string
	TmpDir    string
	Env       []envfile.Var
	Timer     *timing.Timer
}

// Provisioner runs the provisioning sequence.
type Provisioner struct {
	disk        Disk
	sink        envfile.Sink
	stepTimeout time.Duration
}

// Option configures a Provisioner.
type Option func(*Provisioner)

// WithStepTimeout bounds each OS step. Zero leaves steps unbounded.
func WithStepTimeout(d time.Duration) Option {
	return func(p *Provisioner) {
		p.stepTimeout = d
	}
}

// New creates a provisioner that drives d and exports to sink.
func New(d Disk, sink envfile.Sink, opts ...Option) *Provisioner {
	p := &Provisioner{disk: d, sink: sink}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Provision creates and mounts the volume, creates its pixi temp directory and
// exports the build tool variables. A failing disk step returns a
// *ProvisioningError; in that case no directory is created and nothing is exported.
func (p *Provisioner) Provision(ctx context.Context, req Request) (*Result, error) {
	v := disk.NewVolume(req.BackingPath, req.SizeBytes, req.FileSystem)
	v.Dynamic = req.Dynamic
	v.DevDrive = req.DevDrive

	logger := log.Ctx(ctx).With().Str("backing_path", req.BackingPath).Logger()
	ctx = logger.WithContext(ctx)
	logger.Info().
		Str("size", datasize.ByteSize(req.SizeBytes).HumanReadable()).
		Str("filesystem", string(req.FileSystem)).
		Bool("dynamic", req.Dynamic).
		Bool("dev_drive", req.DevDrive).
		Msg("provisioning dev drive")

	timer := timing.New("Provisioning Timing")
	steps := []struct {
		step Step
		run  func(context.Context, *disk.Volume) error
	}{
		{StepCreate, p.disk.Create},
		{StepMount, p.disk.Mount},
		{StepInitialize, p.disk.Initialize},
		{StepPartition, p.disk.Partition},
		{StepFormat, p.disk.Format},
	}
	partitioned := false
	for _, s := range steps {
		if err := p.runStep(ctx, s.step, v, s.run); err != nil {
			logger.Error().Err(err).Str("step", string(s.step)).Msg("provisioning failed")
			return nil, err
		}
		if s.step == StepPartition {
			partitioned = true
		}
		// Every step from partitioning on must leave a mount path behind.
		if partitioned && !v.Mounted() {
			err := &ProvisioningError{Step: s.step, Err: ErrNoMountPath}
			logger.Error().Err(err).Str("step", string(s.step)).Msg("provisioning failed")
			return nil, err
		}
		logger.Debug().
			Str("step", string(s.step)).
			Str("took", timing.FormatDuration(timer.Mark(string(s.step)))).
			Msg("step complete")
	}

	res := &Result{
		Volume:    v,
		MountPath: v.MountPath,
		TmpDir:    TmpDir(v.MountPath),
		Env:       DeriveEnv(v.MountPath),
		Timer:     timer,
	}

	// Create the temp dir before exporting so no consumer races to create it.
	if err := os.MkdirAll(res.TmpDir, 0755); err != nil {
		return nil, fmt.Errorf("create %s: %w", res.TmpDir, err)
	}
	timer.Mark("create tmp dir")

	if err := p.sink.Export(res.Env...); err != nil {
		return nil, fmt.Errorf("export environment: %w", err)
	}
	timer.Mark("export environment")

	logger.Info().
		Str("mount_path", res.MountPath).
		Str("filesystem", string(v.FormattedAs)).
		Str("took", timing.FormatDuration(timer.Total())).
		Msg("dev drive ready")
	return res, nil
}

func (p *Provisioner) runStep(ctx context.Context, step Step, v *disk.Volume, run func(context.Context, *disk.Volume) error) error {
	if err := ctx.Err(); err != nil {
		return &ProvisioningError{Step: step, Err: err}
	}
	if p.stepTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.stepTimeout)
		defer cancel()
	}

	log.Ctx(ctx).Debug().Str("step", string(step)).Msg("starting step")
	if err := run(ctx, v); err != nil {
		return &ProvisioningError{Step: step, Err: err}
	}
	return nil
}
