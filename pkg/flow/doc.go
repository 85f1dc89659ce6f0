// Package flow exposes ElevenLabs operations as workflow nodes.
//
// A node is one self-contained operation with a JSON Schema parameter
// surface, suitable for embedding in workflow runtimes that wire nodes
// together from untyped parameter maps. Eight nodes cover speech
// generation, voice transformation, cloning, design, sound effects,
// music, and the voice catalog.
//
// # Running Nodes
//
//	rt := flow.NewRuntime(flow.EnvSecrets{})
//	out, err := flow.Builtin().Run(ctx, rt, "elevenlabs/text-to-speech",
//	    json.RawMessage(`{"text": "Hello.", "voice": "Rachel"}`))
//	if err != nil {
//	    return err
//	}
//	os.WriteFile("out.mp3", out.Audio.Data, 0o644)
//
// The API key is resolved from the runtime's secret source on every
// invocation, so rotating ELEVEN_LABS_API_KEY between runs takes
// effect without restarting. Clients are reused per key fingerprint
// and share one voice preview cache.
//
// # Failures
//
// Every failure is a *NodeError with a stable Kind, a human-readable
// message, and remediation text:
//
//	out, err := node.Run(ctx, rt, params)
//	if err != nil {
//	    if ne, ok := flow.AsNodeError(err); ok {
//	        fmt.Println(ne.Kind, ne.Remediation)
//	    }
//	}
//
// # Schemas
//
// Each node describes its parameters as a JSON Schema with closed
// enums for models, output formats, and stability presets:
//
//	for _, n := range flow.Builtin().Nodes() {
//	    spec := n.Describe()
//	    fmt.Println(spec.Name, spec.Description)
//	}
package flow
