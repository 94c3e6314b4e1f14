package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/kazz187/lettatool/internal/config"
	"github.com/kazz187/lettatool/internal/harvest"
	"github.com/kazz187/lettatool/internal/letta"
	"github.com/kazz187/lettatool/internal/publish"
	"github.com/kazz187/lettatool/internal/toolset"
	"github.com/kazz187/lettatool/pkg/cerr"
	"github.com/kazz187/lettatool/pkg/clog"
	"github.com/kazz187/lettatool/pkg/storage"
)

type runner struct {
	cli    *cli
	env    *config.Env
	stdout io.Writer
	logger *slog.Logger
}

func (r *runner) dispatch(ctx context.Context, command string) error {
	switch command {
	case r.cli.listCmd.FullCommand():
		return r.list(ctx)
	case r.cli.attachCmd.FullCommand():
		return r.attach(ctx)
	case r.cli.detachCmd.FullCommand():
		return r.detach(ctx)
	case r.cli.replaceCmd.FullCommand():
		return r.replace(ctx)
	case r.cli.pullCmd.FullCommand():
		return r.pull(ctx)
	case r.cli.uploadCmd.FullCommand():
		return r.upload(ctx)
	}
	return cerr.NewError(cerr.InvalidArgument, fmt.Sprintf("unknown command %q", command), nil)
}

func (r *runner) client() *letta.Client {
	return letta.NewClient(r.env.BaseURL, r.env.APIKey,
		letta.WithTimeout(r.env.Timeout),
		letta.WithLogger(r.logger),
	)
}

func (r *runner) agentID(ctx context.Context, explicit string) (string, error) {
	agentID, err := r.env.ResolveAgentID(explicit)
	if err != nil {
		return "", err
	}
	clog.AddAgentID(ctx, agentID)
	return agentID, nil
}

func (r *runner) manager() *toolset.Manager {
	return toolset.NewManager(r.client(),
		toolset.WithDryRun(*r.cli.dryRun),
		toolset.WithLogger(r.logger),
	)
}

func (r *runner) store(ctx context.Context) (storage.Storage, error) {
	switch r.env.StorageEnv.Type {
	case "", "local":
		s, err := storage.NewLocalStorage(r.env.ToolsDir)
		if err != nil {
			return nil, cerr.NewError(cerr.Internal, "failed to open tools directory", err)
		}
		return s, nil
	case "s3":
		s, err := storage.NewS3Storage(ctx, r.env.S3Bucket, r.env.S3Prefix, r.env.S3Region)
		if err != nil {
			return nil, cerr.NewError(cerr.InvalidArgument, "failed to configure S3 storage", err)
		}
		return s, nil
	}
	return nil, cerr.NewError(cerr.InvalidArgument, fmt.Sprintf("unsupported LETTA_STORAGE_TYPE %q", r.env.StorageEnv.Type), nil)
}

func (r *runner) list(ctx context.Context) error {
	agentID, err := r.agentID(ctx, *r.cli.listAgentID)
	if err != nil {
		return err
	}
	listing, err := r.manager().List(ctx, agentID)
	if err != nil {
		return err
	}
	if err := listing.Render(r.stdout, toolset.Format(*r.cli.listFormat)); err != nil {
		return cerr.NewError(cerr.Internal, "failed to render tool list", err)
	}
	return nil
}

func (r *runner) attach(ctx context.Context) error {
	agentID, err := r.agentID(ctx, *r.cli.attachAgentID)
	if err != nil {
		return err
	}
	toolID := *r.cli.attachToolID
	res, err := r.manager().Attach(ctx, agentID, toolID)
	if err != nil {
		return err
	}
	if !res.Changed {
		fmt.Fprintf(r.stdout, "Tool %s is already attached\n", toolID)
		return nil
	}
	return r.printApplied(res, agentID, fmt.Sprintf("Tool %s attached successfully", toolID))
}

func (r *runner) detach(ctx context.Context) error {
	agentID, err := r.agentID(ctx, *r.cli.detachAgentID)
	if err != nil {
		return err
	}
	toolID := *r.cli.detachToolID
	res, err := r.manager().Detach(ctx, agentID, toolID)
	if err != nil {
		return err
	}
	if !res.Changed {
		fmt.Fprintf(r.stdout, "Tool %s is not attached\n", toolID)
		return nil
	}
	return r.printApplied(res, agentID, fmt.Sprintf("Tool %s detached successfully", toolID))
}

func (r *runner) replace(ctx context.Context) error {
	agentID, err := r.agentID(ctx, *r.cli.replaceAgentID)
	if err != nil {
		return err
	}
	oldID, newID := *r.cli.replaceOldID, *r.cli.replaceNewID
	res, err := r.manager().Replace(ctx, agentID, oldID, newID)
	if err != nil {
		return err
	}
	if !slices.Contains(res.Before, oldID) {
		fmt.Fprintf(r.stdout, "Old tool %s is not attached\n", oldID)
	}
	if !res.Changed {
		fmt.Fprintf(r.stdout, "New tool %s is already attached\n", newID)
		return nil
	}
	return r.printApplied(res, agentID, fmt.Sprintf("Replaced %s with %s", oldID, newID))
}

// printApplied prints msg for an applied change, or the pending diff in dry run.
func (r *runner) printApplied(res *toolset.Result, agentID, msg string) error {
	if res.Applied {
		fmt.Fprintln(r.stdout, msg)
		return nil
	}
	diff, err := res.Diff(agentID)
	if err != nil {
		return cerr.NewError(cerr.Internal, "failed to compute diff", err)
	}
	fmt.Fprintf(r.stdout, "Dry run, agent %s not updated:\n%s", agentID, diff)
	return nil
}

func (r *runner) pull(ctx context.Context) error {
	agentID, err := r.agentID(ctx, *r.cli.pullAgentID)
	if err != nil {
		return err
	}
	store, err := r.store(ctx)
	if err != nil {
		return err
	}
	h := harvest.New(r.client(), store,
		harvest.WithRedactSecret(r.env.RedactSecret),
		harvest.WithLogger(r.logger),
	)
	report, err := h.Pull(ctx, agentID)
	if err != nil {
		return err
	}

	fmt.Fprintf(r.stdout, "Agent: %s (%s)\n", report.AgentName, report.AgentID)
	for _, t := range report.Tools {
		switch {
		case t.Err != nil:
			fmt.Fprintf(r.stdout, "  ✗ %s: %s\n", t.Name, describe(cerr.Extract(t.Err)))
		case t.BuiltIn:
			fmt.Fprintf(r.stdout, "  - %s (built-in, no source)\n", t.Name)
		case t.Redacted:
			fmt.Fprintf(r.stdout, "  ✓ %s (secret redacted)\n", t.Name)
		default:
			fmt.Fprintf(r.stdout, "  ✓ %s\n", t.Name)
		}
	}
	fmt.Fprintf(r.stdout, "Manifest: %s\n", report.ManifestPath)
	if len(report.Stale) > 0 {
		fmt.Fprintln(r.stdout, "Not attached to this agent any more:")
		for _, p := range report.Stale {
			fmt.Fprintf(r.stdout, "  %s\n", p)
		}
	}
	fmt.Fprintf(r.stdout, "Pulled %d tools into %s\n", len(report.Tools)-len(report.Failed()), store.Location(""))
	return nil
}

func (r *runner) upload(ctx context.Context) error {
	// The attach target is optional for uploads.
	agentID := *r.cli.uploadAttachTo
	if agentID == "" {
		agentID = r.env.AgentID
	}
	if agentID != "" {
		clog.AddAgentID(ctx, agentID)
	}
	store, err := r.store(ctx)
	if err != nil {
		return err
	}
	p := publish.New(r.client(), store,
		publish.WithTags(*r.cli.uploadTags),
		publish.WithLogger(r.logger),
	)
	res, err := p.Upload(ctx, *r.cli.uploadName, agentID)
	if res != nil && res.Tool != nil {
		fmt.Fprintf(r.stdout, "Tool uploaded: %s\n", res.Tool.ID)
	}
	if err != nil {
		return err
	}
	if res.AttachResult != nil {
		if res.AttachResult.Changed {
			fmt.Fprintf(r.stdout, "Attached to agent %s\n", agentID)
		} else {
			fmt.Fprintf(r.stdout, "Already attached to agent %s\n", agentID)
		}
	}
	return nil
}

// describe renders an error for the user, including the raw response body of
// a failed request.
func describe(ce *cerr.Error) string {
	msg := ce.Msg
	var se *letta.StatusError
	if errors.As(ce, &se) {
		return fmt.Sprintf("%s (HTTP %d): %s", msg, se.StatusCode, se.Body)
	}
	if ce.Err != nil {
		return fmt.Sprintf("%s: %v", msg, ce.Err)
	}
	return msg
}
