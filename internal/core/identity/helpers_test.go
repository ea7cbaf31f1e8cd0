package identity

import "encoding/base64"

func base64Sig(raw []byte) string {
	return base64.StdEncoding.EncodeToString(raw) + SignatureSuffix
}
