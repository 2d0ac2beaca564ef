package server

import (
	"encoding/json"

	goversion "github.com/hashicorp/go-version"
	log "github.com/sirupsen/logrus"

	"github.com/nbkit/nbsync/pkg/remote"
)

// Generation is a notebook server API generation. Legacy servers expose
// contents under /api/notebooks with bare listings that omit most metadata;
// current servers use /api/contents with full records.
type Generation int

const (
	GenerationLegacy  Generation = 2
	GenerationCurrent Generation = 3
)

// currentCutover is the first server version that speaks the current
// contents API.
var currentCutover = goversion.Must(goversion.NewVersion("3.0.0"))

// Probe determines the API generation of the server behind cli by querying
// its version endpoint, and returns the version string the server reported
// (empty for servers that predate the endpoint). Probe failure falls back
// to legacy with a warning rather than failing the caller: a wrong guess
// surfaces as content errors later, while failing here would block every
// operation.
func Probe(cli *remote.Client) (Generation, string) {
	body, err := cli.Get("api")
	if err != nil {
		if remote.IsNotFound(err) {
			log.WithField("server", cli.Identity()).Debug(
				"Server has no version endpoint. Assuming a legacy server.")
		} else {
			log.WithError(err).WithField("server", cli.Identity()).Warn(
				"Failed to probe server version. Assuming a legacy server.")
		}
		return GenerationLegacy, ""
	}

	var info struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(body, &info); err != nil || info.Version == "" {
		log.WithField("server", cli.Identity()).Debug(
			"Version endpoint returned no version. Assuming a legacy server.")
		return GenerationLegacy, ""
	}

	parsed, err := goversion.NewVersion(info.Version)
	if err != nil {
		log.WithField("version", info.Version).Debug(
			"Unparseable server version. Assuming a legacy server.")
		return GenerationLegacy, info.Version
	}

	gen := GenerationCurrent
	if parsed.LessThan(currentCutover) {
		gen = GenerationLegacy
	}
	log.WithFields(log.Fields{
		"server":     cli.Identity(),
		"version":    info.Version,
		"generation": gen,
	}).Debug("Probed server generation")
	return gen, info.Version
}

// ProbeGeneration is Probe without the reported version string.
func ProbeGeneration(cli *remote.Client) Generation {
	gen, _ := Probe(cli)
	return gen
}
