// SPDX-License-Identifier: EPL-2.0

package squarew

import (
	"github.com/tucommenceapousser/squarew/audio"
	"github.com/tucommenceapousser/squarew/formats/aiff"
	"github.com/tucommenceapousser/squarew/formats/flac"
	"github.com/tucommenceapousser/squarew/formats/mp3"
	"github.com/tucommenceapousser/squarew/formats/vorbis"
	"github.com/tucommenceapousser/squarew/formats/wav"
)

// NewRegistry returns a registry with every built-in decoder, keyed by file
// extension.
func NewRegistry() *audio.Registry {
	r := audio.NewRegistry()
	r.Register("mp3", mp3.Decoder{})
	r.Register("wav", wav.Decoder{})
	r.Register("ogg", vorbis.Decoder{})
	r.Register("aif", aiff.Decoder{})
	r.Register("aiff", aiff.Decoder{})
	r.Register("flac", flac.Decoder{})
	return r
}
