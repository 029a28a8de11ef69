package widget

import _ "embed"

// Version of the browser script served at /widget.js.
const Version = "1.0.0"

var (
	//go:embed assets/units.js
	unitsScript []byte

	//go:embed assets/widget.js
	runtimeScript []byte
)

var script = bundle(unitsScript, runtimeScript)

func bundle(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
		out = append(out, '\n')
	}
	return out
}

// Script returns the embedded browser runtime, unit helpers first.
func Script() []byte { return script }
