// Package elevenlabs provides a Go client for the ElevenLabs speech API.
//
// The client covers text to speech, speech to speech conversion, voice
// management and cloning, voice design, sound effects, music, and
// realtime WebSocket synthesis.
//
// # Basic Usage
//
//	client := elevenlabs.NewClient(os.Getenv("ELEVEN_LABS_API_KEY"))
//
//	audio, err := client.TTS.Synthesize(ctx, &elevenlabs.TTSRequest{
//	    Voice: elevenlabs.Preset(elevenlabs.PresetRachel),
//	    Text:  "The quick brown fox jumps over the lazy dog.",
//	})
//	if err != nil {
//	    return err
//	}
//	os.WriteFile("out.mp3", audio.Data, 0o644)
//
// # Voices
//
// Voices are referenced by preset tag or by custom voice id. Presets
// resolve through a bundled table; custom ids are probed against the
// account and must be in My Voices. Resolution results are cached per
// key fingerprint, so switching API keys invalidates the cache.
//
//	for voice, err := range client.Voices.List(ctx, nil) {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(voice.ID, voice.Name)
//	}
//
// # Streaming
//
// Streaming methods return iter.Seq2 iterators that can be used with
// Go 1.23+ range:
//
//	for chunk, err := range client.TTS.Stream(ctx, req) {
//	    if err != nil {
//	        return err
//	    }
//	    w.Write(chunk)
//	}
//
// # Jobs
//
// Generation calls can be wrapped in jobs that record lifecycle state
// and transport attempts:
//
//	job := client.NewJob(req)
//	audio, err := job.Run(ctx)
//	fmt.Println(job.State(), job.Attempts())
//
// # Error Handling
//
// All API failures are *Error values with a Kind:
//
//	audio, err := client.TTS.Synthesize(ctx, req)
//	if err != nil {
//	    if e, ok := elevenlabs.AsError(err); ok {
//	        if e.Kind == elevenlabs.KindVoiceAccessDenied {
//	            // voice not in My Voices
//	        }
//	    }
//	    return err
//	}
//
// Rate limits and network failures are retried with exponential
// backoff before surfacing; server errors are retried once.
//
// # Configuration
//
//	client := elevenlabs.NewClient("api-key",
//	    elevenlabs.WithTimeout(60*time.Second),
//	    elevenlabs.WithRetry(3),
//	    elevenlabs.WithPreviewCache(cache),
//	)
//
// For more information, see: https://elevenlabs.io/docs
package elevenlabs
