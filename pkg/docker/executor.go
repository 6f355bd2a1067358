// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package docker implements the sandbox executor: a single long-lived
// Docker container per agent that strategy-generated and code-generated
// Python is written into and run inside, bounded by a wall-clock timeout.
package docker

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
	"github.com/docker/docker/pkg/stdcopy"
	"go.uber.org/zap"

	"github.com/cycleforge/agentcore/pkg/agenterr"
	"github.com/cycleforge/agentcore/pkg/docker/runtime"
)

// DefaultExecTimeout bounds how long a single RunCode call may run before
// it is killed and reported as a timeout.
const DefaultExecTimeout = 150 * time.Second

// Config configures a SandboxExecutor.
type Config struct {
	// DockerHost is the Docker daemon endpoint. Empty uses the client
	// library's environment-derived default (DOCKER_HOST, or the local
	// unix socket).
	DockerHost string

	// ContainerName identifies the long-lived sandbox container. Callers
	// typically derive this from the agent id, e.g. "agentcore-<agent_id>",
	// so repeated runs of the same agent reuse the same container.
	ContainerName string

	// BaseImage overrides the runtime's default image.
	BaseImage string

	// WorkingDir is the directory inside the container that code is
	// written to and run from. Defaults to /workspace.
	WorkingDir string

	// ResourceLimits bounds the container's CPU, memory, and process count.
	ResourceLimits *runtime.ResourceLimits

	// ExecTimeout bounds a single RunCode call. Defaults to
	// DefaultExecTimeout.
	ExecTimeout time.Duration

	// Logger is required.
	Logger *zap.Logger
}

// SandboxExecutor owns one long-lived Docker container and the code
// written into, and run inside, it.
//
// Lifecycle: resolve-or-create the named container once at construction,
// then reuse it across every WriteCode/RunCode call for the life of the
// process. There is no rotation: a stuck or corrupted container is an
// operator concern, not something the executor works around.
type SandboxExecutor struct {
	client        *client.Client
	runtime       runtime.Runtime
	containerID   string
	containerName string
	workingDir    string
	execTimeout   time.Duration
	logger        *zap.Logger
}

// NewSandboxExecutor connects to the Docker daemon and resolves (creating
// if necessary) the named sandbox container.
func NewSandboxExecutor(ctx context.Context, cfg Config) (*SandboxExecutor, error) {
	if cfg.ContainerName == "" {
		return nil, agenterr.New(agenterr.KindConfig, "NewSandboxExecutor", fmt.Errorf("container name is required"))
	}
	if cfg.Logger == nil {
		return nil, agenterr.New(agenterr.KindConfig, "NewSandboxExecutor", fmt.Errorf("logger is required"))
	}

	workingDir := cfg.WorkingDir
	if workingDir == "" {
		workingDir = "/workspace"
	}
	execTimeout := cfg.ExecTimeout
	if execTimeout <= 0 {
		execTimeout = DefaultExecTimeout
	}

	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}
	if cfg.DockerHost != "" {
		opts = append(opts, client.WithHost(cfg.DockerHost))
	}

	dockerClient, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, agenterr.New(agenterr.KindSandboxIO, "NewSandboxExecutor", fmt.Errorf("create docker client: %w", err))
	}

	if _, err := dockerClient.Ping(ctx); err != nil {
		dockerClient.Close()
		return nil, agenterr.New(agenterr.KindSandboxIO, "NewSandboxExecutor", fmt.Errorf("ping docker daemon: %w", err))
	}

	se := &SandboxExecutor{
		client:        dockerClient,
		runtime:       runtime.NewPythonRuntime(),
		containerName: cfg.ContainerName,
		workingDir:    workingDir,
		execTimeout:   execTimeout,
		logger:        cfg.Logger,
	}

	runtimeConfig := &runtime.Config{
		RuntimeType:    runtime.RuntimePython,
		BaseImage:      cfg.BaseImage,
		WorkingDir:     workingDir,
		ResourceLimits: cfg.ResourceLimits,
		Python: &runtime.PythonConfig{
			PythonVersion: "3.11",
			UsePipCache:   true,
		},
	}

	containerID, created, err := se.resolveContainer(ctx, runtimeConfig)
	if err != nil {
		dockerClient.Close()
		return nil, err
	}
	se.containerID = containerID

	se.logger.Info("sandbox container ready",
		zap.String("container_name", cfg.ContainerName),
		zap.String("container_id", containerID),
		zap.Bool("created", created),
	)

	return se, nil
}

// resolveContainer looks up the named container; on NotFound it creates
// and starts a fresh one. This is a direct mirror of the
// get-existing-or-create-new resolution every agent run does against its
// own persistent sandbox.
func (se *SandboxExecutor) resolveContainer(ctx context.Context, cfg *runtime.Config) (string, bool, error) {
	inspect, err := se.client.ContainerInspect(ctx, se.containerName)
	if err == nil {
		if !inspect.State.Running {
			if err := se.client.ContainerStart(ctx, inspect.ID, container.StartOptions{}); err != nil {
				return "", false, agenterr.New(agenterr.KindSandboxIO, "resolveContainer", fmt.Errorf("start existing container: %w", err))
			}
		}
		return inspect.ID, false, nil
	}
	if !errdefs.IsNotFound(err) {
		return "", false, agenterr.New(agenterr.KindSandboxIO, "resolveContainer", fmt.Errorf("inspect container: %w", err))
	}

	containerID, err := se.createContainer(ctx, cfg)
	if err != nil {
		return "", false, err
	}
	return containerID, true, nil
}

// createContainer builds and starts a fresh sandbox container, then runs
// the runtime's one-time package installation commands inside it.
func (se *SandboxExecutor) createContainer(ctx context.Context, cfg *runtime.Config) (string, error) {
	image, err := se.runtime.PrepareImage(ctx, cfg)
	if err != nil {
		return "", agenterr.New(agenterr.KindSandboxIO, "createContainer", fmt.Errorf("prepare image: %w", err))
	}
	cfg.BaseImage = image

	containerConfig, err := se.runtime.BuildContainerConfig(ctx, cfg)
	if err != nil {
		return "", agenterr.New(agenterr.KindSandboxIO, "createContainer", fmt.Errorf("build container config: %w", err))
	}

	hostConfig, err := se.runtime.BuildHostConfig(ctx, cfg)
	if err != nil {
		return "", agenterr.New(agenterr.KindSandboxIO, "createContainer", fmt.Errorf("build host config: %w", err))
	}

	se.logger.Info("creating sandbox container", zap.String("container_name", se.containerName), zap.String("image", image))

	resp, err := se.client.ContainerCreate(ctx, containerConfig, hostConfig, nil, nil, se.containerName)
	if err != nil {
		return "", agenterr.New(agenterr.KindSandboxIO, "createContainer", fmt.Errorf("create container: %w", err))
	}

	if err := se.client.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return "", agenterr.New(agenterr.KindSandboxIO, "createContainer", fmt.Errorf("start container: %w", err))
	}

	installCommands, err := se.runtime.InstallPackages(ctx, cfg)
	if err != nil {
		return "", agenterr.New(agenterr.KindSandboxIO, "createContainer", fmt.Errorf("build install commands: %w", err))
	}

	for _, cmd := range installCommands {
		if _, _, exitCode, err := se.exec(ctx, resp.ID, cmd, nil, se.execTimeout); err != nil {
			return "", agenterr.New(agenterr.KindSandboxIO, "createContainer", fmt.Errorf("install command %v: %w", cmd, err))
		} else if exitCode != 0 {
			return "", agenterr.New(agenterr.KindSandboxIO, "createContainer", fmt.Errorf("install command %v exited %d", cmd, exitCode))
		}
	}

	return resp.ID, nil
}

// WriteCode writes code into the sandbox container as a timestamped
// Python script and returns its absolute in-container path plus the
// reflected body read back from the container. It verifies the write by
// statting the file back, since a silently-truncated copy would
// otherwise surface as a confusing "file not found" from RunCode, and
// reads the file back with cat so callers can confirm byte-for-byte what
// actually landed before executing it.
func (se *SandboxExecutor) WriteCode(ctx context.Context, code string, namePostfix string) (string, string, error) {
	filename := fmt.Sprintf("temp_script_%s", time.Now().UTC().Format("20060102_150405.000000"))
	if namePostfix != "" {
		filename = fmt.Sprintf("%s_%s", filename, namePostfix)
	}
	filename += ".py"

	destPath := path.Join(se.workingDir, filename)

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	hdr := &tar.Header{
		Name: filename,
		Mode: 0o644,
		Size: int64(len(code)),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return "", "", agenterr.New(agenterr.KindSandboxIO, "WriteCode", fmt.Errorf("write tar header: %w", err))
	}
	if _, err := tw.Write([]byte(code)); err != nil {
		return "", "", agenterr.New(agenterr.KindSandboxIO, "WriteCode", fmt.Errorf("write tar body: %w", err))
	}
	if err := tw.Close(); err != nil {
		return "", "", agenterr.New(agenterr.KindSandboxIO, "WriteCode", fmt.Errorf("close tar writer: %w", err))
	}

	if err := se.client.CopyToContainer(ctx, se.containerID, se.workingDir, &buf, types.CopyToContainerOptions{}); err != nil {
		return "", "", agenterr.New(agenterr.KindSandboxIO, "WriteCode", fmt.Errorf("copy to container: %w", err))
	}

	checkCmd := []string{"sh", "-c", fmt.Sprintf("test -f %q && echo exists", destPath)}
	stdout, _, exitCode, err := se.exec(ctx, se.containerID, checkCmd, nil, 10*time.Second)
	if err != nil {
		return "", "", agenterr.New(agenterr.KindSandboxIO, "WriteCode", fmt.Errorf("verify write: %w", err))
	}
	if exitCode != 0 || !strings.Contains(stdout, "exists") {
		return "", "", agenterr.New(agenterr.KindSandboxIO, "WriteCode", fmt.Errorf("file not present after copy: %s", destPath))
	}

	catCmd := []string{"sh", "-c", fmt.Sprintf("cat %q", destPath)}
	reflected, _, exitCode, err := se.exec(ctx, se.containerID, catCmd, nil, 10*time.Second)
	if err != nil || exitCode != 0 {
		return "", "", agenterr.New(agenterr.KindSandboxIO, "WriteCode", fmt.Errorf("read back written file: %w", err))
	}

	se.logger.Debug("wrote code into sandbox", zap.String("path", destPath), zap.Int("bytes", len(code)))

	return destPath, reflected, nil
}

// Execute writes code into the sandbox under namePostfix, then runs it,
// returning the combined stdout/stderr. This is the single call the
// orchestrator's stage envelope uses; WriteCode and RunCode remain
// separately callable for finer-grained control.
func (se *SandboxExecutor) Execute(ctx context.Context, code string, namePostfix string) (string, error) {
	scriptPath, _, err := se.WriteCode(ctx, code, namePostfix)
	if err != nil {
		return "", err
	}
	return se.RunCode(ctx, scriptPath)
}

// RunCode runs the Python script at path inside the sandbox, bounded by
// the executor's ExecTimeout. On timeout it best-effort kills the python
// process and returns agenterr.KindSandboxTimeout. On a clean but
// nonzero-exit run it returns agenterr.KindSandboxExec with the combined
// stdout/stderr attached so callers can feed it back into a regen prompt.
func (se *SandboxExecutor) RunCode(ctx context.Context, scriptPath string) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, se.execTimeout)
	defer cancel()

	cmd := []string{"/bin/sh", "-c", fmt.Sprintf("python -u %s 2>&1", scriptPath)}
	stdout, _, exitCode, err := se.exec(runCtx, se.containerID, cmd, nil, se.execTimeout)

	if runCtx.Err() != nil {
		se.killScript(ctx, scriptPath)
		return stdout, agenterr.New(agenterr.KindSandboxTimeout, "RunCode", fmt.Errorf("execution exceeded %s", se.execTimeout))
	}
	if err != nil {
		return stdout, agenterr.New(agenterr.KindSandboxIO, "RunCode", err)
	}

	se.cleanupAfterRun(ctx)

	if exitCode != 0 {
		return stdout, agenterr.New(agenterr.KindSandboxExec, "RunCode", fmt.Errorf("script exited %d", exitCode))
	}

	return stdout, nil
}

// killScript best-effort kills any python process matching scriptPath
// after a timeout. Errors are logged, not returned: the timeout itself is
// already the caller's signal.
func (se *SandboxExecutor) killScript(ctx context.Context, scriptPath string) {
	killCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cmd := []string{"sh", "-c", fmt.Sprintf("pkill -9 -f %q", scriptPath)}
	if _, _, _, err := se.exec(killCtx, se.containerID, cmd, nil, 10*time.Second); err != nil {
		se.logger.Warn("failed to kill timed-out script", zap.String("path", scriptPath), zap.Error(err))
	}
}

// cleanupAfterRun kills any leftover python processes after a completed
// run, mirroring the reference implementation's belt-and-suspenders
// process cleanup.
func (se *SandboxExecutor) cleanupAfterRun(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cmd := []string{"sh", "-c", "pkill -9 -f python || true"}
	if _, _, _, err := se.exec(cleanupCtx, se.containerID, cmd, nil, 10*time.Second); err != nil {
		se.logger.Debug("post-run cleanup exec failed", zap.Error(err))
	}
}

// exec runs a command inside containerID and returns its combined
// stdout/stderr, stderr alone, and exit code.
func (se *SandboxExecutor) exec(ctx context.Context, containerID string, cmd []string, env []string, timeout time.Duration) (string, string, int, error) {
	execConfig := container.ExecOptions{
		Cmd:          cmd,
		Env:          env,
		AttachStdout: true,
		AttachStderr: true,
	}

	execID, err := se.client.ContainerExecCreate(ctx, containerID, execConfig)
	if err != nil {
		return "", "", 0, fmt.Errorf("create exec: %w", err)
	}

	attachResp, err := se.client.ContainerExecAttach(ctx, execID.ID, container.ExecAttachOptions{})
	if err != nil {
		return "", "", 0, fmt.Errorf("attach exec: %w", err)
	}
	defer attachResp.Close()

	var stdoutBuf, stderrBuf strings.Builder
	if _, err := stdcopy.StdCopy(&stdoutBuf, &stderrBuf, attachResp.Reader); err != nil {
		return "", "", 0, fmt.Errorf("read exec output: %w", err)
	}

	inspectResp, err := se.client.ContainerExecInspect(ctx, execID.ID)
	if err != nil {
		return "", "", 0, fmt.Errorf("inspect exec: %w", err)
	}

	stdout := stdoutBuf.String()
	stderr := stderrBuf.String()
	if stderr != "" {
		stdout += stderr
	}

	return stdout, stderr, inspectResp.ExitCode, nil
}

// Close releases the Docker client connection. The sandbox container
// itself is left running so the next process to start for this agent
// can reuse it.
func (se *SandboxExecutor) Close() error {
	if se.client == nil {
		return nil
	}
	return se.client.Close()
}
