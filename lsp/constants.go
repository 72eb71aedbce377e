package lsp

// LSP Semantic Token Type indices
// Must match the order of TokenTypes
const (
	TokenTypeOperator  uint32 = 0 // = != > < >= <=
	TokenTypeNumber    uint32 = 1 // slot literals
	TokenTypeVariable  uint32 = 2 // RESOURCE_n
	TokenTypeNamespace uint32 = 3 // GROUP_n
	TokenTypeProperty  uint32 = 4 // PHASE_n, PIPELINE_n, ROUND_n
)

// TokenTypes is the semantic tokens legend
var TokenTypes = []string{
	"operator",
	"number",
	"variable",
	"namespace",
	"property",
}

// Diagnostic severities
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// ServerName is reported to clients on initialize
const ServerName = "slotgrid rules"
