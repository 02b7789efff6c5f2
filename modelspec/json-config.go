package modelspec

import (
	"encoding/json"
	"log"
	"os"

	"github.com/carbocation/pfx"
)

// ParseJSONModelFromPath loads a ModelSpec from a JSON config file, e.g.:
//
//	{
//	  "test": "linear",
//	  "outcome": "ldl",
//	  "predictors": ["age", "sex", "SNPs"],
//	  "translations": {"coef": "Beta", "p_value": "P"}
//	}
func ParseJSONModelFromPath(path string) (*ModelSpec, error) {
	out := &ModelSpec{ConfigPath: path}

	f, err := os.Open(path)
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer f.Close()

	err = json.NewDecoder(f).Decode(out)
	if err != nil {
		if e, ok := err.(*json.SyntaxError); ok {
			log.Printf("syntax error at byte offset %d", e.Offset)
		}

		return nil, pfx.Err(err)
	}

	if err := out.validate(); err != nil {
		return nil, err
	}

	return out, nil
}
