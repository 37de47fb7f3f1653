package model

import "time"

// Contract identifies one roster entry to consolidate.
type Contract struct {
	Number   string `json:"numero"`
	Year     string `json:"ano"`
	NIT      string `json:"nit,omitempty"`
	Provider string `json:"razon_social,omitempty"`
	Category string `json:"categoria,omitempty"`
}

// ContractStatus is the terminal state of one contract within a run.
type ContractStatus string

const (
	ContractPending   ContractStatus = "pendiente"
	ContractProcessed ContractStatus = "procesado"
	ContractFailed    ContractStatus = "error"
	ContractNoAnnex   ContractStatus = "sin_anexo"
)

// ContractResult is the outcome of processing a single contract.
type ContractResult struct {
	Contract       string          `json:"contrato"`
	Year           string          `json:"ano"`
	Status         ContractStatus  `json:"estado"`
	Message        string          `json:"mensaje"`
	DownloadedFile string          `json:"archivo_descargado,omitempty"`
	Origin         string          `json:"origen_tarifa,omitempty"`
	TotalServices  int             `json:"total_servicios"`
	TotalSites     int             `json:"total_sedes"`
	Services       []ServiceRecord `json:"servicios,omitempty"`
	Alerts         []Alert         `json:"alertas,omitempty"`
}

// ConsolidationResult aggregates a full roster run.
type ConsolidationResult struct {
	RunID      string           `json:"run_id"`
	Success    bool             `json:"exito"`
	Message    string           `json:"mensaje"`
	Processed  int              `json:"contratos_procesados"`
	Succeeded  int              `json:"contratos_exitosos"`
	Failed     int              `json:"contratos_fallidos"`
	NoAnnex    int              `json:"contratos_sin_anexo"`
	Results    []ContractResult `json:"resultados"`
	Services   []ServiceRecord  `json:"servicios_consolidados"`
	Alerts     []Alert          `json:"alertas_consolidadas"`
	OutputFile string           `json:"archivo_consolidado,omitempty"`
	AlertsFile string           `json:"archivo_alertas,omitempty"`
	SummaryFile string          `json:"archivo_resumen,omitempty"`
	StartedAt  time.Time        `json:"inicio"`
	FinishedAt time.Time        `json:"fin"`
}

// Duration returns the wall-clock span of the run.
func (r *ConsolidationResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// RunStatus tracks the lifecycle of a persisted consolidation run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is the persisted record of one consolidation run.
type Run struct {
	ID         string     `json:"id"`
	Status     RunStatus  `json:"status"`
	Processed  int        `json:"contratos_procesados"`
	Succeeded  int        `json:"contratos_exitosos"`
	Failed     int        `json:"contratos_fallidos"`
	NoAnnex    int        `json:"contratos_sin_anexo"`
	StartedAt  time.Time  `json:"inicio"`
	FinishedAt *time.Time `json:"fin,omitempty"`
}
