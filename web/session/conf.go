package session

import "github.com/libresign/libresign/sec"

type Conf struct {
	EncryptionKey string                       `json:"enckey"`
	Cipher        *sec.XChaCha20Poly1305Cipher `json:"-"`

	ExpireSliding int   `json:"expire_sliding"` // seconds, refreshed on every authenticated request
	ExpireHardcap int   `json:"expire_hardcap"` // seconds, cookie max age
	MaxCntPerUser int64 `json:"max_cnt_per_user"`

	// For Web Login Sessions
	LoginPath string `json:"login_path"`
}
