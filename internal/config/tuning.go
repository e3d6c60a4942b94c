package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig holds every spec-named tunable threshold (§6) for background
// rejection, clustering and face decomposition, and anomaly comparison. All
// fields use the JSON-pointer-field pattern so a config file can override a
// subset of defaults and so JSON zero values are distinguishable from
// "unset". Spatial constants share geom.Point's millimeter unit.
type TuningConfig struct {
	// Background/object scanning (§4.2, §4.3)
	MinReflectivity *float64 `json:"min_reflectivity,omitempty"`
	BackFrame       *string  `json:"back_frame,omitempty"` // duration string like "2s"
	ObjFrame        *string  `json:"obj_frame,omitempty"`  // duration string like "250ms"
	BackDistanceM   *float64 `json:"back_distance_m,omitempty"`

	// Clustering and face decomposition (§4.4)
	ClusterPointProximityMM *float64 `json:"cluster_point_proximity_mm,omitempty"`
	FacePointProximityMM    *float64 `json:"face_point_proximity_mm,omitempty"`
	MinClusterPoints        *int     `json:"min_cluster_points,omitempty"`
	MinFacePoints           *int     `json:"min_face_points,omitempty"`
	MaxNormalVectAngleOCDeg *float64 `json:"max_normal_vect_angle_oc_deg,omitempty"`
	MaxNormalVectAngleADDeg *float64 `json:"max_normal_vect_angle_ad_deg,omitempty"`

	// Anomaly comparison (§4.5)
	MaxDimensionDeltaMM *float64 `json:"max_dimension_delta_mm,omitempty"`

	// Octree (§3)
	MaxPoints *int `json:"max_points,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from a defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The file is
// validated to have a .json extension and to be under the max file size.
// Fields omitted from the JSON retain nil (fall back to Get* defaults).
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from
// DefaultConfigPath, searching up from the current directory. Panics if the
// file cannot be loaded; intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,
		"../../../" + DefaultConfigPath,
		"../../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that any set fields hold structurally valid values.
func (c *TuningConfig) Validate() error {
	if c.MinReflectivity != nil && *c.MinReflectivity < 0 {
		return fmt.Errorf("min_reflectivity must be non-negative, got %f", *c.MinReflectivity)
	}
	if c.BackFrame != nil && *c.BackFrame != "" {
		if _, err := time.ParseDuration(*c.BackFrame); err != nil {
			return fmt.Errorf("invalid back_frame %q: %w", *c.BackFrame, err)
		}
	}
	if c.ObjFrame != nil && *c.ObjFrame != "" {
		if _, err := time.ParseDuration(*c.ObjFrame); err != nil {
			return fmt.Errorf("invalid obj_frame %q: %w", *c.ObjFrame, err)
		}
	}
	if c.BackDistanceM != nil && *c.BackDistanceM < 0 {
		return fmt.Errorf("back_distance_m must be non-negative, got %f", *c.BackDistanceM)
	}
	if c.ClusterPointProximityMM != nil && *c.ClusterPointProximityMM <= 0 {
		return fmt.Errorf("cluster_point_proximity_mm must be positive, got %f", *c.ClusterPointProximityMM)
	}
	if c.FacePointProximityMM != nil && *c.FacePointProximityMM <= 0 {
		return fmt.Errorf("face_point_proximity_mm must be positive, got %f", *c.FacePointProximityMM)
	}
	if c.MinClusterPoints != nil && *c.MinClusterPoints < 1 {
		return fmt.Errorf("min_cluster_points must be >= 1, got %d", *c.MinClusterPoints)
	}
	if c.MinFacePoints != nil && *c.MinFacePoints < 1 {
		return fmt.Errorf("min_face_points must be >= 1, got %d", *c.MinFacePoints)
	}
	if c.MaxNormalVectAngleOCDeg != nil && (*c.MaxNormalVectAngleOCDeg < 0 || *c.MaxNormalVectAngleOCDeg > 90) {
		return fmt.Errorf("max_normal_vect_angle_oc_deg must be in [0, 90], got %f", *c.MaxNormalVectAngleOCDeg)
	}
	if c.MaxNormalVectAngleADDeg != nil && (*c.MaxNormalVectAngleADDeg < 0 || *c.MaxNormalVectAngleADDeg > 90) {
		return fmt.Errorf("max_normal_vect_angle_ad_deg must be in [0, 90], got %f", *c.MaxNormalVectAngleADDeg)
	}
	if c.MaxDimensionDeltaMM != nil && *c.MaxDimensionDeltaMM < 0 {
		return fmt.Errorf("max_dimension_delta_mm must be non-negative, got %f", *c.MaxDimensionDeltaMM)
	}
	if c.MaxPoints != nil && *c.MaxPoints < 1 {
		return fmt.Errorf("max_points must be >= 1, got %d", *c.MaxPoints)
	}
	return nil
}

// ValidateComplete additionally requires every field to be set, for use on
// a config that is meant to be a complete, standalone tuning profile (the
// canonical defaults file, or a fully-specified override file).
func (c *TuningConfig) ValidateComplete() error {
	if err := c.Validate(); err != nil {
		return err
	}
	missing := []string{}
	if c.MinReflectivity == nil {
		missing = append(missing, "min_reflectivity")
	}
	if c.BackFrame == nil {
		missing = append(missing, "back_frame")
	}
	if c.ObjFrame == nil {
		missing = append(missing, "obj_frame")
	}
	if c.BackDistanceM == nil {
		missing = append(missing, "back_distance_m")
	}
	if c.ClusterPointProximityMM == nil {
		missing = append(missing, "cluster_point_proximity_mm")
	}
	if c.FacePointProximityMM == nil {
		missing = append(missing, "face_point_proximity_mm")
	}
	if c.MinClusterPoints == nil {
		missing = append(missing, "min_cluster_points")
	}
	if c.MinFacePoints == nil {
		missing = append(missing, "min_face_points")
	}
	if c.MaxNormalVectAngleOCDeg == nil {
		missing = append(missing, "max_normal_vect_angle_oc_deg")
	}
	if c.MaxNormalVectAngleADDeg == nil {
		missing = append(missing, "max_normal_vect_angle_ad_deg")
	}
	if c.MaxDimensionDeltaMM == nil {
		missing = append(missing, "max_dimension_delta_mm")
	}
	if c.MaxPoints == nil {
		missing = append(missing, "max_points")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required tuning fields: %v", missing)
	}
	return nil
}

// GetMinReflectivity returns min_reflectivity or its spec default (0.0).
func (c *TuningConfig) GetMinReflectivity() float64 {
	if c.MinReflectivity == nil {
		return 0.0
	}
	return *c.MinReflectivity
}

// GetBackFrame returns back_frame or its spec default (2s).
func (c *TuningConfig) GetBackFrame() time.Duration {
	if c.BackFrame == nil || *c.BackFrame == "" {
		return 2 * time.Second
	}
	d, err := time.ParseDuration(*c.BackFrame)
	if err != nil {
		return 2 * time.Second
	}
	return d
}

// GetObjFrame returns obj_frame or its spec default (250ms).
func (c *TuningConfig) GetObjFrame() time.Duration {
	if c.ObjFrame == nil || *c.ObjFrame == "" {
		return 250 * time.Millisecond
	}
	d, err := time.ParseDuration(*c.ObjFrame)
	if err != nil {
		return 250 * time.Millisecond
	}
	return d
}

// GetBackDistanceM returns back_distance_m or its spec default (0.04m).
func (c *TuningConfig) GetBackDistanceM() float64 {
	if c.BackDistanceM == nil {
		return 0.04
	}
	return *c.BackDistanceM
}

// GetClusterPointProximityMM returns cluster_point_proximity_mm or its spec default (20mm).
func (c *TuningConfig) GetClusterPointProximityMM() float64 {
	if c.ClusterPointProximityMM == nil {
		return 20
	}
	return *c.ClusterPointProximityMM
}

// GetFacePointProximityMM returns face_point_proximity_mm or its spec default (30mm).
func (c *TuningConfig) GetFacePointProximityMM() float64 {
	if c.FacePointProximityMM == nil {
		return 30
	}
	return *c.FacePointProximityMM
}

// GetMinClusterPoints returns min_cluster_points or its spec default (20).
func (c *TuningConfig) GetMinClusterPoints() int {
	if c.MinClusterPoints == nil {
		return 20
	}
	return *c.MinClusterPoints
}

// GetMinFacePoints returns min_face_points or its spec default (15).
func (c *TuningConfig) GetMinFacePoints() int {
	if c.MinFacePoints == nil {
		return 15
	}
	return *c.MinFacePoints
}

// GetMaxNormalVectAngleOCDeg returns max_normal_vect_angle_oc_deg or its
// spec default (3 degrees), used during object characterization.
func (c *TuningConfig) GetMaxNormalVectAngleOCDeg() float64 {
	if c.MaxNormalVectAngleOCDeg == nil {
		return 3
	}
	return *c.MaxNormalVectAngleOCDeg
}

// GetMaxNormalVectAngleADDeg returns max_normal_vect_angle_ad_deg or its
// spec default (1.5 degrees), used by the anomaly comparator's per-face
// orientation check.
func (c *TuningConfig) GetMaxNormalVectAngleADDeg() float64 {
	if c.MaxNormalVectAngleADDeg == nil {
		return 1.5
	}
	return *c.MaxNormalVectAngleADDeg
}

// GetMaxDimensionDeltaMM returns max_dimension_delta_mm or its spec default (40mm).
func (c *TuningConfig) GetMaxDimensionDeltaMM() float64 {
	if c.MaxDimensionDeltaMM == nil {
		return 40
	}
	return *c.MaxDimensionDeltaMM
}

// GetMaxPoints returns max_points (octree leaf capacity) or its spec default (100).
func (c *TuningConfig) GetMaxPoints() int {
	if c.MaxPoints == nil {
		return 100
	}
	return *c.MaxPoints
}
