package cmd

import "testing"

func TestAnalyzeFlags(t *testing.T) {
	t.Parallel()

	if err := analyzeCmd.ParseFlags([]string{
		"--lat", "16.4637",
		"--lon", "107.5909",
		"--title", "Huế",
		"--province", "Thừa Thiên Huế",
		"--elevation", "12",
	}); err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}

	lat, _ := analyzeCmd.Flags().GetFloat64("lat")
	if lat != 16.4637 {
		t.Fatalf("lat = %v, want 16.4637", lat)
	}
	lon, _ := analyzeCmd.Flags().GetFloat64("lon")
	if lon != 107.5909 {
		t.Fatalf("lon = %v, want 107.5909", lon)
	}
	title, _ := analyzeCmd.Flags().GetString("title")
	if title != "Huế" {
		t.Fatalf("title = %q, want Huế", title)
	}
	province, _ := analyzeCmd.Flags().GetString("province")
	if province != "Thừa Thiên Huế" {
		t.Fatalf("province = %q", province)
	}
	elevation, _ := analyzeCmd.Flags().GetFloat64("elevation")
	if elevation != 12 {
		t.Fatalf("elevation = %v, want 12", elevation)
	}
}

func TestRootRegistersCommands(t *testing.T) {
	t.Parallel()

	want := map[string]bool{
		"init-db":  false,
		"analyze":  false,
		"scan":     false,
		"collect":  false,
		"history":  false,
		"favorite": false,
		"shelters": false,
	}
	for _, c := range rootCmd.Commands() {
		if _, ok := want[c.Name()]; ok {
			want[c.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Fatalf("command %q not registered", name)
		}
	}
}
