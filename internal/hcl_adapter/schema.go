package hcl_adapter

// fileRoot decodes every top-level block of a project file. Each block may
// appear at most once; unknown blocks are rejected by the decoder.
type fileRoot struct {
	Project   *projectBlock   `hcl:"project,block"`
	Driver    *driverBlock    `hcl:"driver,block"`
	Log       *logBlock       `hcl:"log,block"`
	Telemetry *telemetryBlock `hcl:"telemetry,block"`
	Publish   *publishBlock   `hcl:"publish,block"`
}

type projectBlock struct {
	Root   *string `hcl:"root,optional"`
	Stdlib *string `hcl:"stdlib,optional"`
}

type driverBlock struct {
	Mode         *string `hcl:"mode,optional"`
	FetchWorkers *int    `hcl:"fetch_workers,optional"`
	CheckWorkers *int    `hcl:"check_workers,optional"`
}

type logBlock struct {
	Level  *string `hcl:"level,optional"`
	Format *string `hcl:"format,optional"`
}

type telemetryBlock struct {
	Traces  *string `hcl:"traces,optional"`
	Metrics *string `hcl:"metrics,optional"`
	Port    *int    `hcl:"port,optional"`
}

type publishBlock struct {
	URL       *string `hcl:"url,optional"`
	Namespace *string `hcl:"namespace,optional"`
	Event     *string `hcl:"event,optional"`
}
