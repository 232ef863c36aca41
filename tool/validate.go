package tool

import (
	"github.com/xeipuuv/gojsonschema"
)

// ValidateArguments checks a raw JSON argument payload against the tool's
// parameter schema. A schema mismatch yields an InvalidArguments failure; a
// descriptor without a usable schema skips validation (the server validates
// again on its side).
func ValidateArguments(desc Descriptor, rawArgs string) *Failure {
	if len(desc.Parameters) == 0 {
		return nil
	}
	if rawArgs == "" {
		rawArgs = "{}"
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(desc.Parameters),
		gojsonschema.NewStringLoader(rawArgs),
	)
	if err != nil {
		return &Failure{
			Tool:    desc.Name,
			Kind:    FailureInvalidArguments,
			Message: "arguments are not valid JSON: " + err.Error(),
		}
	}
	if !result.Valid() {
		msg := "arguments do not match the tool schema"
		if errs := result.Errors(); len(errs) > 0 {
			msg = errs[0].String()
		}
		return &Failure{
			Tool:    desc.Name,
			Kind:    FailureInvalidArguments,
			Message: msg,
		}
	}
	return nil
}
