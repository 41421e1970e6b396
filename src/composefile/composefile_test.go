package composefile_test

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"stack-backup/src/composefile"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "docker-compose.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestParse(t *testing.T) {
	path := writeFile(t, `
services:
  mariadb:
    image: docker.io/bitnami/mariadb:10.6
    container_name: moodle-mariadb-full
  moodle:
    image: docker.io/bitnami/moodle:4.1
    container_name: moodle-app-full
    ports:
      - "8080:8080"
  phpmyadmin:
    image: docker.io/phpmyadmin:5
volumes:
  mariadb_data:
`)
	f, err := composefile.Parse(path)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(f.Services) != 3 {
		t.Fatalf("expected 3 services, got %d", len(f.Services))
	}
	if f.Services["moodle"].ContainerName != "moodle-app-full" {
		t.Fatalf("unexpected service %+v", f.Services["moodle"])
	}

	want := []string{
		"docker.io/bitnami/mariadb:10.6",
		"docker.io/bitnami/moodle:4.1",
		"docker.io/phpmyadmin:5",
	}
	if got := f.Images(); !reflect.DeepEqual(got, want) {
		t.Fatalf("images = %v, want %v", got, want)
	}
}

func TestImages_Deduplicates(t *testing.T) {
	path := writeFile(t, `
services:
  a:
    image: docker.io/bitnami/mariadb:10.6
  b:
    image: docker.io/bitnami/mariadb:10.6
`)
	f, err := composefile.Parse(path)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := f.Images(); len(got) != 1 {
		t.Fatalf("images = %v, want one entry", got)
	}
}

func TestParse_NoServices(t *testing.T) {
	if _, err := composefile.Parse(writeFile(t, "volumes:\n  data:\n")); err == nil {
		t.Fatal("compose file without services should fail")
	}
	if _, err := composefile.Parse(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Fatal("missing file should fail")
	}
}
