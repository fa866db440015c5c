package vector

import "strings"

// QueryWeighting selects how a query term is weighted. The zero value is
// the default scheme.
type QueryWeighting int

const (
	QueryTFIDF QueryWeighting = iota
	QueryBinary
	QueryTF
)

// DocWeighting selects how a term is weighted inside a document. The zero
// value is the default scheme.
type DocWeighting int

const (
	DocTFIDFLogNormalize DocWeighting = iota
	DocBinary
	DocFrequency
	DocTFIDFNormalize
	DocTFIDFLogarithmic
)

// ParseQueryWeighting maps a configuration name to its scheme. Unknown
// names select QueryTFIDF.
func ParseQueryWeighting(name string) QueryWeighting {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "binary":
		return QueryBinary
	case "tf", "frequency":
		return QueryTF
	default:
		return QueryTFIDF
	}
}

func (w QueryWeighting) String() string {
	switch w {
	case QueryBinary:
		return "binary"
	case QueryTF:
		return "tf"
	default:
		return "tf_idf"
	}
}

// ParseDocWeighting maps a configuration name to its scheme. Unknown names
// select DocTFIDFLogNormalize.
func ParseDocWeighting(name string) DocWeighting {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "binary":
		return DocBinary
	case "frequency", "tf":
		return DocFrequency
	case "tf_idf_normalize":
		return DocTFIDFNormalize
	case "tf_idf_logarithmic":
		return DocTFIDFLogarithmic
	default:
		return DocTFIDFLogNormalize
	}
}

func (w DocWeighting) String() string {
	switch w {
	case DocBinary:
		return "binary"
	case DocFrequency:
		return "frequency"
	case DocTFIDFNormalize:
		return "tf_idf_normalize"
	case DocTFIDFLogarithmic:
		return "tf_idf_logarithmic"
	default:
		return "tf_idf_log_normalize"
	}
}
