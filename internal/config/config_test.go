package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://db:27017")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("DEFAULT_PICTURE", "https://cdn.example.com/person.png")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "mongodb://db:27017", cfg.Mongo.URI)
	assert.Equal(t, "s3cret", cfg.JWT.Secret)
	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "https://cdn.example.com/person.png", cfg.Defaults.Picture)
	assert.Equal(t, "messagingApp", cfg.Mongo.Database)
	assert.Equal(t, "groups", cfg.Mongo.ChatCollection)
	assert.Equal(t, time.Hour, cfg.JWT.AccessTTL)
}

func TestLoad_LegacyMongoVariable(t *testing.T) {
	t.Setenv("MONGO_DB_CONNECTION_STRING", "mongodb://legacy:27017")
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "mongodb://legacy:27017", cfg.Mongo.URI)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	err := os.WriteFile(path, []byte(`
app:
  port: 4000
  env: production
mongo:
  uri: mongodb://file:27017
  database: chat
jwt:
  secret: from-file
  access_ttl: 30m
defaults:
  group_picture: https://cdn.example.com/group.png
`), 0o600)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 4000, cfg.App.Port)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, "chat", cfg.Mongo.Database)
	assert.Equal(t, 30*time.Minute, cfg.JWT.AccessTTL)
	assert.Equal(t, "https://cdn.example.com/group.png", cfg.Defaults.GroupPicture)
	assert.Equal(t, "messages", cfg.Mongo.MessageCollection)
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("MONGO_URI", "")
	t.Setenv("MONGO_DB_CONNECTION_STRING", "")
	t.Setenv("JWT_SECRET", "x")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mongo.uri")

	t.Setenv("MONGO_URI", "mongodb://db:27017")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("SECRET_KEY", "")
	_, err = Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt.secret")
}
