package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"gridsnake.io/internal/persistence/mirror"
)

// buildMirror returns nil (a no-op mirror) unless GS_MIRROR is enabled.
func buildMirror(dataDir string, logger *log.Logger) (*mirror.Mirror, error) {
	if !envBool("GS_MIRROR", false) {
		return nil, nil
	}
	cfg := mirror.S3Config{
		Endpoint:        os.Getenv("GS_MIRROR_ENDPOINT"),
		Region:          os.Getenv("GS_MIRROR_REGION"),
		Bucket:          os.Getenv("GS_MIRROR_BUCKET"),
		AccessKeyID:     os.Getenv("GS_MIRROR_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("GS_MIRROR_SECRET_ACCESS_KEY"),
	}
	client, err := mirror.NewS3Client(cfg)
	if err != nil {
		return nil, fmt.Errorf("GS_MIRROR=true: %w", err)
	}
	return mirror.New(client, dataDir, mirror.Options{
		Prefix:  strings.TrimSpace(os.Getenv("GS_MIRROR_PREFIX")),
		Workers: envInt("GS_MIRROR_WORKERS", 2),
	}, logger), nil
}
