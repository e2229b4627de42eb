package config

import (
	"context"
	"errors"

	"github.com/parasol-run/parasol/pkg/dispatch"
	"github.com/parasol-run/parasol/pkg/engine"
	"github.com/parasol-run/parasol/pkg/files"
	"github.com/parasol-run/parasol/pkg/naming"
	"github.com/parasol-run/parasol/pkg/remote"
	"github.com/parasol-run/parasol/pkg/render"
	"github.com/parasol-run/parasol/pkg/sweep"
)

func (f *File) saveMapping() bool {
	if f.SaveMapping == nil {
		return true
	}
	return *f.SaveMapping
}

func (f *File) verbose() bool {
	if f.Verbose == nil {
		return true
	}
	return *f.Verbose
}

// Request assembles the sweep request the file describes, assuming a
// File produced by Load or Parse. The caller attaches the journal and
// telemetry before running.
//
// The returned close function releases whatever the request holds open
// (dispatcher sessions, the SSH connection behind an uploading writer)
// and must be called once the run is over, also when it fails. With the
// local backend and no form of waiting configured, the dispatcher is
// left open so returning does not stall on running simulations. ctx
// bounds the SSH connection made when uploads are enabled.
func (f *File) Request(ctx context.Context) (*engine.Request, func() error, error) {
	req := &engine.Request{
		Command:       f.Command,
		ConfigPaths:   f.Configs,
		SweepID:       f.SweepID,
		Serial:        f.Serial,
		Wait:          f.Wait,
		Cleanup:       f.Cleanup,
		ErrorIfExists: f.ErrorIfExists,
		SaveMapping:   f.saveMapping(),
		Verbose:       f.verbose(),
		Delay:         f.delay,
	}

	var closers []func() error
	closer := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	var err error
	switch f.Templates.Engine {
	case "gotemplate":
		if len(f.Templates.Texts) > 0 {
			req.Engine, err = render.NewGoTemplate(f.Templates.Texts)
		} else {
			req.Engine, err = render.LoadGoTemplate(f.Templates.Paths)
		}
		if err != nil {
			return nil, nil, err
		}
	default:
		req.TemplatePaths = f.Templates.Paths
		req.TemplateTexts = f.Templates.Texts
	}

	kind, err := f.Sweep.kind()
	if err != nil {
		return nil, nil, err
	}
	switch kind {
	case kindCartesian:
		req.Parameters = f.Sweep.Parameters
	case kindFiltered:
		flt := f.Sweep.filter
		if flt == nil {
			flt, err = NewFilter(f.Sweep.Filter, f.path, f.Sweep.filterTimeout)
			if err != nil {
				return nil, nil, err
			}
		}
		sp, err := sweep.NewFiltered(flt.Predicate(), f.Sweep.Parameters...)
		if err != nil {
			return nil, nil, err
		}
		req.Space = sp
	case kindExplicit:
		req.ParameterSets = f.Sweep.Sets
	case kindRandom:
		axes := make([]sweep.RandomAxis, 0, len(f.Sweep.Distributions))
		for _, d := range f.Sweep.Distributions {
			v, err := d.variable()
			if err != nil {
				return nil, nil, err
			}
			axes = append(axes, sweep.RandomAxis{Name: d.Name, Var: v})
		}
		var sp *sweep.Random
		if f.Sweep.Seed != nil {
			sp, err = sweep.NewSeededRandom(axes, f.Sweep.Length, *f.Sweep.Seed)
		} else {
			sp, err = sweep.NewRandom(axes, f.Sweep.Length)
		}
		if err != nil {
			return nil, nil, err
		}
		req.Space = sp
	}

	switch f.Naming.Kind {
	case namingHash:
		req.Namer = &naming.Hash{Digits: f.Naming.Digits}
	case namingList:
		req.Namer = naming.NewList(f.Naming.IDs)
	default:
		if f.Naming.ZeroFill != 0 || f.Naming.StartAt != 0 {
			req.Namer = &naming.Sequential{ZeroFill: f.Naming.ZeroFill, StartAt: f.Naming.StartAt}
		}
	}

	switch f.Dispatch.Backend {
	case backendSlurm:
		d := dispatch.NewSlurm(dispatch.JobOptions{
			JobName:   f.Dispatch.Slurm.JobName,
			Partition: f.Dispatch.Slurm.Partition,
			Account:   f.Dispatch.Slurm.Account,
			TimeLimit: f.Dispatch.Slurm.TimeLimit,
			Output:    f.Dispatch.Slurm.Output,
			ExtraArgs: f.Dispatch.Slurm.ExtraArgs,
		})
		req.Dispatcher = d
		closers = append(closers, d.Close)
	case backendSSH:
		rcfg := f.Dispatch.SSH.remoteConfig()
		d := dispatch.NewSSH(rcfg)
		d.MaxSessions = f.Dispatch.SSH.MaxSessions
		req.Dispatcher = d
		closers = append(closers, d.Close)
		if f.Dispatch.SSH.Upload {
			client, err := remote.NewClient(rcfg)
			if err != nil {
				closer()
				return nil, nil, err
			}
			if err := client.Connect(ctx); err != nil {
				closer()
				return nil, nil, err
			}
			req.Writer = files.SFTP{Client: client}
			closers = append(closers, client.Close)
		}
	default:
		d := dispatch.NewLocal(f.Dispatch.Procs)
		req.Dispatcher = d
		if f.Serial || f.Wait || f.Cleanup {
			closers = append(closers, d.Close)
		}
	}

	return req, closer, nil
}

// remoteConfig translates the section into the SSH transport
// configuration, keeping the usual defaults for anything unset.
func (s SSHSection) remoteConfig() *remote.Config {
	cfg := remote.DefaultConfig(s.Host, s.User)
	if s.Port != 0 {
		cfg.Port = s.Port
	}
	if s.AuthMethod != "" {
		cfg.AuthMethod = remote.AuthMethod(s.AuthMethod)
	}
	cfg.Password = s.Password
	if s.KeyPath != "" {
		cfg.PrivateKeyPath = s.KeyPath
	}
	if s.KnownHosts != "" {
		cfg.KnownHostsPath = s.KnownHosts
	}
	if s.Insecure {
		cfg.StrictHostKeyChecking = false
	}
	return cfg
}
