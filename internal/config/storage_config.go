package config

type StorageConfig interface {
	GetTokenStore() TokenStoreType
	GetRedisURL() string
	GetTokenStoreKey() string
	GetMediaURL() string
	GetMediaBucket() string
}

// TokenStoreType selects where the access/refresh token pair is persisted.
type TokenStoreType string

const (
	TokenStoreMemory TokenStoreType = "memory"
	TokenStoreFile   TokenStoreType = "file"
	TokenStoreRedis  TokenStoreType = "redis"
)

type Storage struct{}

var _ StorageConfig = Storage{}

func (Storage) GetTokenStore() TokenStoreType {
	switch t := TokenStoreType(GetEnv("TOKEN_STORE", string(TokenStoreFile))); t {
	case TokenStoreMemory, TokenStoreFile, TokenStoreRedis:
		return t
	default:
		return TokenStoreFile
	}
}

func (Storage) GetRedisURL() string {
	return GetEnv("REDIS_URL", "redis://localhost:6379/0")
}

// GetTokenStoreKey returns the hex encoded 32 byte key used to seal the token file.
// Empty means the file is written in plain JSON.
func (Storage) GetTokenStoreKey() string {
	return GetEnv("TOKEN_STORE_KEY", "")
}

func (Storage) GetMediaURL() string {
	return GetEnv("MEDIA_URL", "http://localhost:9000")
}

func (Storage) GetMediaBucket() string {
	return GetEnv("MEDIA_BUCKET", "products")
}
