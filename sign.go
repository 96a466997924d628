package cytomine

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/http"
	"strings"
)

// dateLayout is the date header format the server's signature check
// expects.
const dateLayout = "Mon, 02 Jan 2006 15:04:05 +0000"

// sign stamps the shared request headers and computes the authorization
// token the server verifies: the method, the content type, the date and
// the signed path, joined with newlines and keyed with the private key.
// The signed path is the request URL with signBase stripped and signPath
// prefixed, so endpoints outside the API base sign their bare path.
func (c *Client) sign(req *http.Request, contentType, signBase, signPath string) {
	date := c.now().UTC().Format(dateLayout)
	req.Header.Set("Accept", "application/json, */*")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Date", date)
	req.Header.Set("X-Requested-With", "XMLHTTPRequest")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	token := req.Method + "\n\n" +
		contentType + "\n" +
		date + "\n" +
		signPath + strings.Replace(req.URL.String(), signBase, "", 1)

	mac := hmac.New(sha1.New, []byte(c.privateKey))
	mac.Write([]byte(token))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	req.Header.Set("Authorization", "CYTOMINE "+c.publicKey+":"+signature)
}
