package identity

import "github.com/nhle/todosync/internal/credential"

// KeyringCache is the production TokenCache backed by the system keyring.
type KeyringCache struct{}

func (KeyringCache) Get(key string) (string, error) {
	return credential.Get(key)
}

func (KeyringCache) Set(key, value string) error {
	return credential.Set(key, value)
}

func (KeyringCache) Delete(key string) error {
	return credential.Delete(key)
}
