// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package runtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
)

// PythonRuntime configures the long-lived Python sandbox container: base
// image selection, pip caching, optional requirements/virtualenv, and
// preinstalled packages.
type PythonRuntime struct {
	BaseRuntime
}

// NewPythonRuntime creates a Python runtime strategy.
func NewPythonRuntime() *PythonRuntime {
	return &PythonRuntime{
		BaseRuntime: BaseRuntime{runtimeType: RuntimePython},
	}
}

// BuildContainerConfig implements Runtime.
func (pr *PythonRuntime) BuildContainerConfig(ctx context.Context, config *Config) (*container.Config, error) {
	if config == nil {
		return nil, fmt.Errorf("sandbox config is nil")
	}

	pythonConfig := config.Python
	if pythonConfig == nil {
		pythonConfig = &PythonConfig{PythonVersion: "3.11"}
	}

	image := pr.getBaseImage(config, pythonConfig)

	containerConfig := &container.Config{
		Image:        image,
		Cmd:          []string{"/bin/sh", "-c", "sleep infinity"},
		Tty:          false,
		AttachStdin:  false,
		AttachStdout: true,
		AttachStderr: true,
	}

	if config.WorkingDir != "" {
		containerConfig.WorkingDir = config.WorkingDir
	} else {
		containerConfig.WorkingDir = "/workspace"
	}

	ApplyEnvironment(containerConfig, config.Environment)

	ApplyEnvironment(containerConfig, map[string]string{
		"PYTHONUNBUFFERED": "1",
		"PIP_NO_CACHE_DIR": "0",
		"PIP_CACHE_DIR":    "/root/.cache/pip",
	})

	if pythonConfig.VirtualEnv != "" {
		ApplyEnvironment(containerConfig, map[string]string{
			"VIRTUAL_ENV": fmt.Sprintf("/workspace/.venv/%s", pythonConfig.VirtualEnv),
			"PATH":        fmt.Sprintf("/workspace/.venv/%s/bin:$PATH", pythonConfig.VirtualEnv),
		})
	}

	return containerConfig, nil
}

// BuildHostConfig implements Runtime.
func (pr *PythonRuntime) BuildHostConfig(ctx context.Context, config *Config) (*container.HostConfig, error) {
	if config == nil {
		return nil, fmt.Errorf("sandbox config is nil")
	}

	hostConfig := &container.HostConfig{
		NetworkMode:   "host",
		RestartPolicy: container.RestartPolicy{Name: container.RestartPolicyUnlessStopped},
	}

	ApplyResourceLimits(hostConfig, config.ResourceLimits)
	ApplyVolumeMounts(hostConfig, config.VolumeMounts)

	if config.Python != nil && config.Python.UsePipCache {
		hostConfig.Mounts = append(hostConfig.Mounts, pr.GetCacheMounts(ctx)...)
	}

	ApplySecurityOptions(hostConfig)

	return hostConfig, nil
}

// PrepareImage implements Runtime. Actual pulling happens implicitly on
// container create; this only resolves the image name.
func (pr *PythonRuntime) PrepareImage(ctx context.Context, config *Config) (string, error) {
	if config == nil {
		return "", fmt.Errorf("sandbox config is nil")
	}

	pythonConfig := config.Python
	if pythonConfig == nil {
		pythonConfig = &PythonConfig{PythonVersion: "3.11"}
	}

	return pr.getBaseImage(config, pythonConfig), nil
}

// InstallPackages implements Runtime: virtualenv creation, requirements
// file, and preinstalled packages, in that order.
func (pr *PythonRuntime) InstallPackages(ctx context.Context, config *Config) ([][]string, error) {
	if config == nil {
		return nil, fmt.Errorf("sandbox config is nil")
	}

	var commands [][]string

	pythonConfig := config.Python
	if pythonConfig == nil {
		return commands, nil
	}

	if pythonConfig.VirtualEnv != "" {
		commands = append(commands, []string{
			"python", "-m", "venv", fmt.Sprintf("/workspace/.venv/%s", pythonConfig.VirtualEnv),
		})
	}

	if pythonConfig.RequirementsFile != "" {
		commands = append(commands, []string{"pip", "install", "-r", pythonConfig.RequirementsFile})
	}

	if len(pythonConfig.PreinstallPackages) > 0 {
		installCmd := append([]string{"pip", "install"}, pythonConfig.PreinstallPackages...)
		commands = append(commands, installCmd)
	}

	return commands, nil
}

// GetCacheMounts implements Runtime: a named volume shared across agent
// containers so pip reinstalls stay fast.
func (pr *PythonRuntime) GetCacheMounts(ctx context.Context) []mount.Mount {
	return []mount.Mount{
		{
			Type:   mount.TypeVolume,
			Source: "agentcore-pip-cache",
			Target: "/root/.cache/pip",
		},
	}
}

// getBaseImage returns the Docker image to use, preferring an explicit
// override, then the configured Python version normalized to major.minor.
func (pr *PythonRuntime) getBaseImage(config *Config, pythonConfig *PythonConfig) string {
	if config.BaseImage != "" {
		return config.BaseImage
	}

	version := pythonConfig.PythonVersion
	if version == "" {
		version = "3.11"
	}

	parts := strings.Split(version, ".")
	if len(parts) > 2 {
		version = parts[0] + "." + parts[1]
	}

	return fmt.Sprintf("python:%s-slim", version)
}
