package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestLoadDefaultsFile verifies that the canonical defaults file loads
// correctly and that every field is populated with a structurally valid
// value.
func TestLoadDefaultsFile(t *testing.T) {
	cfg := MustLoadDefaultConfig()

	if cfg.MinReflectivity == nil {
		t.Fatal("MinReflectivity must be set")
	}
	if cfg.BackFrame == nil {
		t.Fatal("BackFrame must be set")
	}
	if cfg.ObjFrame == nil {
		t.Fatal("ObjFrame must be set")
	}
	if cfg.MaxPoints == nil {
		t.Fatal("MaxPoints must be set")
	}

	if *cfg.MinReflectivity < 0 {
		t.Errorf("MinReflectivity must be non-negative, got %f", *cfg.MinReflectivity)
	}
	if _, err := time.ParseDuration(*cfg.BackFrame); err != nil {
		t.Errorf("BackFrame must be a valid duration, got %q: %v", *cfg.BackFrame, err)
	}
	if _, err := time.ParseDuration(*cfg.ObjFrame); err != nil {
		t.Errorf("ObjFrame must be a valid duration, got %q: %v", *cfg.ObjFrame, err)
	}

	if cfg.GetMinClusterPoints() < 1 {
		t.Errorf("GetMinClusterPoints() must be >= 1: %d", cfg.GetMinClusterPoints())
	}
	if cfg.GetMaxPoints() < 1 {
		t.Errorf("GetMaxPoints() must be >= 1: %d", cfg.GetMaxPoints())
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must pass Validate(): %v", err)
	}
	if err := cfg.ValidateComplete(); err != nil {
		t.Errorf("defaults must pass ValidateComplete(): %v", err)
	}
}

func TestEmptyTuningConfig(t *testing.T) {
	cfg := EmptyTuningConfig()

	if cfg.MinReflectivity != nil {
		t.Error("Expected MinReflectivity to be nil")
	}
	if cfg.BackFrame != nil {
		t.Error("Expected BackFrame to be nil")
	}

	if err := cfg.ValidateComplete(); err == nil {
		t.Error("Expected ValidateComplete to fail on empty config")
	}
}

// TestSpecDefaults pins the Get* fallback values to the constants named in
// spec §6, so a regression there is caught directly rather than only via
// the defaults JSON file.
func TestSpecDefaults(t *testing.T) {
	cfg := EmptyTuningConfig()

	cases := []struct {
		name string
		got  float64
		want float64
	}{
		{"min_reflectivity", cfg.GetMinReflectivity(), 0.0},
		{"back_distance_m", cfg.GetBackDistanceM(), 0.04},
		{"cluster_point_proximity_mm", cfg.GetClusterPointProximityMM(), 20},
		{"face_point_proximity_mm", cfg.GetFacePointProximityMM(), 30},
		{"max_normal_vect_angle_oc_deg", cfg.GetMaxNormalVectAngleOCDeg(), 3},
		{"max_normal_vect_angle_ad_deg", cfg.GetMaxNormalVectAngleADDeg(), 1.5},
		{"max_dimension_delta_mm", cfg.GetMaxDimensionDeltaMM(), 40},
	}
	for _, c := range cases {
		if c.got != c.want {
			t.Errorf("%s default = %v, want %v", c.name, c.got, c.want)
		}
	}
	if cfg.GetMinClusterPoints() != 20 {
		t.Errorf("min_cluster_points default = %d, want 20", cfg.GetMinClusterPoints())
	}
	if cfg.GetMinFacePoints() != 15 {
		t.Errorf("min_face_points default = %d, want 15", cfg.GetMinFacePoints())
	}
	if cfg.GetMaxPoints() != 100 {
		t.Errorf("max_points default = %d, want 100", cfg.GetMaxPoints())
	}
	if cfg.GetBackFrame() != 2*time.Second {
		t.Errorf("back_frame default = %v, want 2s", cfg.GetBackFrame())
	}
	if cfg.GetObjFrame() != 250*time.Millisecond {
		t.Errorf("obj_frame default = %v, want 250ms", cfg.GetObjFrame())
	}
}

func TestLoadTuningConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test_config.json")

	testJSON := `{
  "min_reflectivity": 5.0,
  "back_frame": "3s",
  "obj_frame": "300ms",
  "back_distance_m": 0.05,
  "cluster_point_proximity_mm": 25,
  "face_point_proximity_mm": 35,
  "min_cluster_points": 15,
  "min_face_points": 10,
  "max_normal_vect_angle_oc_deg": 4,
  "max_normal_vect_angle_ad_deg": 2,
  "max_dimension_delta_mm": 50,
  "max_points": 150
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadTuningConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.MinReflectivity == nil || *cfg.MinReflectivity != 5.0 {
		t.Errorf("Expected MinReflectivity 5.0, got %v", cfg.MinReflectivity)
	}
	if cfg.BackFrame == nil || *cfg.BackFrame != "3s" {
		t.Errorf("Expected BackFrame '3s', got %v", cfg.BackFrame)
	}
	if cfg.MaxPoints == nil || *cfg.MaxPoints != 150 {
		t.Errorf("Expected MaxPoints 150, got %v", cfg.MaxPoints)
	}
	if err := cfg.ValidateComplete(); err != nil {
		t.Errorf("fully-specified config must pass ValidateComplete(): %v", err)
	}
}

func TestLoadTuningConfigMissing(t *testing.T) {
	_, err := LoadTuningConfig("/nonexistent/path/to/config.json")
	if err == nil {
		t.Error("Expected error when loading missing file, got nil")
	}
}

func TestLoadTuningConfigInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid_config.json")

	invalidJSON := `{
  "min_reflectivity": "invalid"
`
	if err := os.WriteFile(configPath, []byte(invalidJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	_, err := LoadTuningConfig(configPath)
	if err == nil {
		t.Error("Expected error when loading invalid JSON, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *TuningConfig
		wantErr bool
	}{
		{
			name:    "valid config from defaults file",
			cfg:     MustLoadDefaultConfig(),
			wantErr: false,
		},
		{
			name:    "empty config is valid",
			cfg:     &TuningConfig{},
			wantErr: false,
		},
		{
			name: "invalid min reflectivity",
			cfg: &TuningConfig{
				MinReflectivity: ptrFloat64(-1),
			},
			wantErr: true,
		},
		{
			name: "invalid back_frame duration",
			cfg: &TuningConfig{
				BackFrame: ptrString("invalid"),
			},
			wantErr: true,
		},
		{
			name: "invalid obj_frame duration",
			cfg: &TuningConfig{
				ObjFrame: ptrString("invalid"),
			},
			wantErr: true,
		},
		{
			name: "non-positive cluster proximity",
			cfg: &TuningConfig{
				ClusterPointProximityMM: ptrFloat64(0),
			},
			wantErr: true,
		},
		{
			name: "zero min cluster points",
			cfg: &TuningConfig{
				MinClusterPoints: ptrInt(0),
			},
			wantErr: true,
		},
		{
			name: "angle out of range",
			cfg: &TuningConfig{
				MaxNormalVectAngleOCDeg: ptrFloat64(91),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetBackFrame(t *testing.T) {
	tests := []struct {
		name string
		cfg  *TuningConfig
		want time.Duration
	}{
		{"2 seconds", &TuningConfig{BackFrame: ptrString("2s")}, 2 * time.Second},
		{"500 milliseconds", &TuningConfig{BackFrame: ptrString("500ms")}, 500 * time.Millisecond},
		{"1 minute", &TuningConfig{BackFrame: ptrString("1m")}, time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.cfg.GetBackFrame()
			if got != tt.want {
				t.Errorf("GetBackFrame() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoadDefaultConfigFile(t *testing.T) {
	cfg, err := LoadTuningConfig("../../config/tuning.defaults.json")
	if err != nil {
		t.Fatalf("Failed to load defaults: %v", err)
	}
	if cfg.GetMinReflectivity() < 0 {
		t.Errorf("MinReflectivity must be non-negative: %f", cfg.GetMinReflectivity())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must pass Validate(): %v", err)
	}
	if err := cfg.ValidateComplete(); err != nil {
		t.Errorf("defaults must pass ValidateComplete(): %v", err)
	}
}

func TestLoadExampleConfigFile(t *testing.T) {
	cfg, err := LoadTuningConfig("../../config/tuning.example.json")
	if err != nil {
		t.Fatalf("Failed to load example: %v", err)
	}
	if cfg.GetMinReflectivity() != 5.0 {
		t.Errorf("Expected 5.0, got %f", cfg.GetMinReflectivity())
	}
	if cfg.GetMaxPoints() != 150 {
		t.Errorf("Expected 150, got %d", cfg.GetMaxPoints())
	}
}

func TestLoadTuningConfigPartial(t *testing.T) {
	// Partial files load fine since Validate only checks set fields; it is
	// ValidateComplete that requires every key, used for standalone profiles.
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "partial.json")

	partialJSON := `{
  "min_reflectivity": 1.0
}`
	if err := os.WriteFile(configPath, []byte(partialJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadTuningConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load partial config: %v", err)
	}
	if err := cfg.ValidateComplete(); err == nil {
		t.Fatal("Expected ValidateComplete to fail for a partial profile")
	} else if !strings.Contains(err.Error(), "missing required") {
		t.Errorf("Expected 'missing required' in error, got: %v", err)
	}
}

func TestLoadTuningConfigRejectsNonJSON(t *testing.T) {
	_, err := LoadTuningConfig("/some/path/config.yaml")
	if err == nil {
		t.Error("Expected error for non-.json extension, got nil")
	}
}

func TestLoadTuningConfigRejectsLargeFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "large.json")

	largeData := make([]byte, 2*1024*1024) // 2MB
	if err := os.WriteFile(configPath, largeData, 0644); err != nil {
		t.Fatalf("Failed to write large file: %v", err)
	}

	_, err := LoadTuningConfig(configPath)
	if err == nil {
		t.Error("Expected error for file size > 1MB, got nil")
	}
}
