package model

import "time"

// Origin identifies which contract document a tariff came from.
// "Inicial" is the original annex; "Otrosí N" is the N-th addendum,
// which supersedes lower numbers and the initial annex.
const (
	OriginInicial = "Inicial"
)

// ServiceRecord is one extracted tariff line. Records are built once during
// an extraction pass and never mutated afterwards; downstream consumers copy.
type ServiceRecord struct {
	ServiceCode      string   `json:"codigo_cups"`
	HomologousCode   string   `json:"codigo_homologo,omitempty"`
	Description      string   `json:"descripcion_cups"`
	UnitTariff       *float64 `json:"tarifa_unitaria,omitempty"`
	TariffManual     string   `json:"manual_tarifario,omitempty"`
	TariffPercentage string   `json:"porcentaje_tarifario,omitempty"`
	RegistrationCode string   `json:"codigo_habilitacion,omitempty"`
	SiteNumber       string   `json:"numero_sede"`
	Origin           string   `json:"origen_tarifa"`
	Observations     string   `json:"observaciones,omitempty"`
	SourceFile       string   `json:"archivo_origen"`
	SourceSheet      string   `json:"hoja_origen"`
	ContractID       string   `json:"contrato"`
	Year             string   `json:"ano"`
}

// Site is a facility/location that subsequent service rows apply to.
type Site struct {
	RegistrationCode string `json:"codigo"`
	SiteNumber       string `json:"sede"`
}

// AlertKind enumerates the diagnostic conditions an extraction can raise.
type AlertKind string

const (
	AlertSheetNotFound      AlertKind = "HOJA_NO_ENCONTRADA"
	AlertReadError          AlertKind = "ERROR_LECTURA"
	AlertColumnsNotDetected AlertKind = "COLUMNAS_NO_DETECTADAS"
	AlertNoServices         AlertKind = "SIN_SERVICIOS"
	AlertTimeout            AlertKind = "TIMEOUT"
	AlertProcessingError    AlertKind = "ERROR_PROCESAMIENTO"
	AlertTransfersOnly      AlertKind = "SOLO_TRASLADOS"
	AlertNoAnnex            AlertKind = "SIN_ANEXO1"
	AlertContractNotFound   AlertKind = "CONTRATO_NO_ENCONTRADO"
)

// Alert is a structured diagnostic emitted alongside (or instead of)
// extraction output. Alerts never block extraction of other rows.
type Alert struct {
	Kind      AlertKind `json:"tipo"`
	Message   string    `json:"mensaje"`
	File      string    `json:"archivo,omitempty"`
	Contract  string    `json:"contrato,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ExtractionResult is the per-file outcome. Success is true iff at least one
// ServiceRecord was produced and no fatal classification failure occurred.
type ExtractionResult struct {
	Success         bool            `json:"exito"`
	Message         string          `json:"mensaje"`
	ProcessedSheet  string          `json:"hoja_procesada"`
	TotalRows       int             `json:"total_filas"`
	Services        []ServiceRecord `json:"servicios"`
	Sites           []Site          `json:"sedes"`
	Alerts          []Alert         `json:"alertas"`
}

// RunContext carries the caller-supplied identifiers stamped onto every
// record of an extraction, unchanged.
type RunContext struct {
	ContractID string `json:"contrato"`
	Year       string `json:"ano"`
	Origin     string `json:"origen_tarifa"`
}
