// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

// Package runtime builds Docker container/host configuration for the
// sandbox executor's single supported execution runtime (Python).
package runtime

import (
	"context"
	"fmt"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/mount"
)

// Type identifies a sandbox execution runtime.
type Type string

// RuntimePython is the only runtime the sandbox executor currently supports.
const RuntimePython Type = "python"

// ResourceLimits bounds CPU, memory and process count for a sandbox container.
type ResourceLimits struct {
	CPUCores  float64
	MemoryMB  int64
	PidsLimit int64
}

// VolumeMount is a host-bind or named-volume mount applied to a container.
type VolumeMount struct {
	Source   string
	Target   string
	ReadOnly bool
}

// PythonConfig holds Python-runtime-specific container knobs.
type PythonConfig struct {
	PythonVersion      string
	VirtualEnv         string
	RequirementsFile   string
	PreinstallPackages []string
	UsePipCache        bool
}

// Config is the full set of inputs needed to build a sandbox container.
type Config struct {
	RuntimeType    Type
	BaseImage      string
	WorkingDir     string
	Environment    map[string]string
	ResourceLimits *ResourceLimits
	VolumeMounts   []VolumeMount
	Python         *PythonConfig
}

// Runtime builds the Docker configuration needed to run a sandbox container
// for one execution runtime. The executor stays runtime-agnostic; all
// image/package/env decisions live here.
type Runtime interface {
	// Type returns the runtime this strategy configures.
	Type() Type

	// BuildContainerConfig creates the Docker container configuration: image,
	// environment, working directory, user.
	BuildContainerConfig(ctx context.Context, config *Config) (*container.Config, error)

	// BuildHostConfig creates the Docker host configuration: resource limits,
	// mounts, security options.
	BuildHostConfig(ctx context.Context, config *Config) (*container.HostConfig, error)

	// PrepareImage resolves the image name to use; pulling is left to the
	// Docker daemon's implicit pull-on-create behavior.
	PrepareImage(ctx context.Context, config *Config) (string, error)

	// InstallPackages returns the commands to run once, right after the
	// container starts, to provision language-level dependencies.
	InstallPackages(ctx context.Context, config *Config) ([][]string, error)

	// GetCacheMounts returns named-volume mounts used to persist package
	// caches across container recreation.
	GetCacheMounts(ctx context.Context) []mount.Mount
}

// BaseRuntime provides the common Type() accessor; runtime implementations
// embed it.
type BaseRuntime struct {
	runtimeType Type
}

// Type implements Runtime.
func (br *BaseRuntime) Type() Type {
	return br.runtimeType
}

// ApplyResourceLimits applies CPU/memory/pid limits to a HostConfig.
func ApplyResourceLimits(hostConfig *container.HostConfig, limits *ResourceLimits) {
	if limits == nil {
		return
	}

	if limits.CPUCores > 0 {
		hostConfig.NanoCPUs = int64(limits.CPUCores * 1e9)
	}

	if limits.MemoryMB > 0 {
		hostConfig.Memory = limits.MemoryMB * 1024 * 1024
	}

	if limits.PidsLimit > 0 {
		pidsLimit := limits.PidsLimit
		hostConfig.PidsLimit = &pidsLimit
	}
}

// ApplyVolumeMounts applies caller-supplied bind mounts to a HostConfig.
func ApplyVolumeMounts(hostConfig *container.HostConfig, volumeMounts []VolumeMount) {
	for _, vm := range volumeMounts {
		hostConfig.Mounts = append(hostConfig.Mounts, mount.Mount{
			Type:     mount.TypeBind,
			Source:   vm.Source,
			Target:   vm.Target,
			ReadOnly: vm.ReadOnly,
		})
	}
}

// ApplyEnvironment appends environment variables to a container Config.
func ApplyEnvironment(containerConfig *container.Config, environment map[string]string) {
	if containerConfig.Env == nil {
		containerConfig.Env = []string{}
	}

	for key, value := range environment {
		containerConfig.Env = append(containerConfig.Env, key+"="+value)
	}
}

// ApplySecurityOptions hardens a HostConfig: a writable tmpfs /tmp,
// capability dropping, no privilege escalation. The root filesystem is
// left writable (ReadonlyRootfs is false).
func ApplySecurityOptions(hostConfig *container.HostConfig) {
	hostConfig.ReadonlyRootfs = false
	hostConfig.Tmpfs = map[string]string{
		"/tmp": "rw,size=1g,mode=1777",
	}

	hostConfig.CapDrop = []string{"ALL"}
	hostConfig.CapAdd = []string{"NET_BIND_SERVICE"}
	hostConfig.Privileged = false
	hostConfig.SecurityOpt = []string{"no-new-privileges"}
}

// ApplyNonRootUser sets the container user to uid:gid. A zero uid or gid
// leaves the container running as root, which is useful while debugging a
// sandbox image.
func ApplyNonRootUser(containerConfig *container.Config, uid, gid int) {
	if uid == 0 || gid == 0 {
		return
	}
	containerConfig.User = fmt.Sprintf("%d:%d", uid, gid)
}
