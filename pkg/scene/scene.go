// Package scene resolves per-scan Matterport3D assets: the navigation graph
// shipped with the simulator and the textured mesh used by the viewer.
package scene

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	rxrerrors "github.com/matzehuels/rxrprep/pkg/errors"
	rxrio "github.com/matzehuels/rxrprep/pkg/io"
)

// ConnectivityPath returns {dir}/{scan}_connectivity.json.
func ConnectivityPath(dir, scan string) string {
	return filepath.Join(dir, scan+"_connectivity.json")
}

// LoadConnectivity reads a scan's navigation graph. The content is only
// normalized (key order and numbers kept, escapes written as literal text);
// its structure is left to the consumer.
func LoadConnectivity(dir, scan string) (json.RawMessage, error) {
	path := ConnectivityPath(dir, scan)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, rxrerrors.WrapFile(rxrerrors.ErrCodeInvalidInput, err, path)
	}
	graph, err := rxrio.Normalize(data)
	if err != nil {
		return nil, rxrerrors.Wrap(rxrerrors.ErrCodeInvalidInput, err, "%s", path)
	}
	return graph, nil
}

// MeshIndex maps Matterport scan ids to mesh ids.
type MeshIndex map[string]string

// LoadMeshIndex reads a JSON object of scan id to mesh id.
func LoadMeshIndex(path string) (MeshIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, rxrerrors.WrapFile(rxrerrors.ErrCodeInvalidInput, err, path)
	}
	var idx MeshIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, rxrerrors.Wrap(rxrerrors.ErrCodeInvalidInput, err, "%s", path)
	}
	return idx, nil
}

// MeshID returns the mesh id of scan.
func (m MeshIndex) MeshID(scan string) (string, error) {
	id, ok := m[scan]
	if !ok {
		return "", rxrerrors.New(rxrerrors.ErrCodeScanNotMapped, "scan %q has no mesh id", scan)
	}
	return id, nil
}

// MeshURL returns {meshDir}/v1/scans/{scan}/matterport_mesh/{meshID}/{meshID}.
//
// meshDir may be a local directory or a bucket URL such as gs://bucket/mp3d,
// so segments are joined with "/" without cleaning the scheme separator.
func MeshURL(meshDir, scan, meshID string) string {
	parts := []string{"v1", "scans", scan, "matterport_mesh", meshID, meshID}
	suffix := strings.Join(parts, "/")
	if meshDir == "" {
		return suffix
	}
	return strings.TrimRight(meshDir, "/") + "/" + suffix
}

// MeshURL looks up scan and builds its mesh URL under meshDir.
func (m MeshIndex) MeshURL(meshDir, scan string) (string, error) {
	id, err := m.MeshID(scan)
	if err != nil {
		return "", err
	}
	return MeshURL(meshDir, scan, id), nil
}
