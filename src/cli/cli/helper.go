// MIT License
//
// # Copyright (c) 2024 sphinx-core
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// go/src/cli/cli/helper.go
package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/sphinx-core/qvault/src/common"
	key "github.com/sphinx-core/qvault/src/core/sphincs/key/backend"
	keystore "github.com/sphinx-core/qvault/src/core/sphincs/key/config"
	"github.com/sphinx-core/qvault/src/core/vault"
	qhttp "github.com/sphinx-core/qvault/src/http"
)

// signingKey is the key pair loaded from the keystore.
type signingKey struct {
	km      *key.KeyManager
	sk      *key.PrivateKey
	pk      *key.PublicKey
	pkBytes []byte
}

func (o *options) keyStore() (*keystore.KeyStore, *key.KeyManager, error) {
	km, err := key.NewKeyManager()
	if err != nil {
		return nil, nil, err
	}
	ks, err := keystore.NewKeyStore(o.cfg.KeyDir, km.Params.Params)
	if err != nil {
		return nil, nil, err
	}
	return ks, km, nil
}

func (o *options) loadKey() (*signingKey, error) {
	ks, km, err := o.keyStore()
	if err != nil {
		return nil, err
	}
	skBytes, pkBytes, err := ks.LoadKeyPair()
	if err != nil {
		return nil, fmt.Errorf("%w (run \"qvault keygen\" first)", err)
	}
	sk, pk, err := km.DeserializeKeyPair(skBytes, pkBytes)
	if err != nil {
		return nil, err
	}
	return &signingKey{km: km, sk: sk, pk: pk, pkBytes: pkBytes}, nil
}

func (o *options) client() *qhttp.Client {
	return qhttp.NewClient(o.cfg.Server.URL, nil)
}

func (o *options) requireOwner() error {
	if o.owner == "" {
		return fmt.Errorf("no owner: pass --owner or set QVAULT_OWNER")
	}
	return nil
}

func printChallenge(w io.Writer, id string, challenge []byte) {
	fmt.Fprintf(w, "vault %s locked\n", id)
	fmt.Fprintf(w, "challenge: %s\n", common.EncodeBase58(challenge))
	fmt.Fprintf(w, "hex:       %s\n", common.Bytes2Hex(challenge))
}

func printStatus(w io.Writer, st *vault.Status) {
	fmt.Fprintf(w, "vault:       %s\n", st.VaultID)
	fmt.Fprintf(w, "owner:       %s\n", st.Owner)
	fmt.Fprintf(w, "key:         %s\n", common.Fingerprint(st.PublicKey))
	fmt.Fprintf(w, "lock:        %s\n", st.Lock)
	fmt.Fprintf(w, "nonce:       %s\n", common.FormatNonce(st.Nonce))
	if st.Challenge != nil {
		fmt.Fprintf(w, "challenge:   %s\n", common.EncodeBase58(st.Challenge))
	}
	fmt.Fprintf(w, "phase:       %s\n", st.Phase)
	switch st.Phase {
	case vault.PhaseUploading, vault.PhaseReadyToVerify:
		fmt.Fprintf(w, "chunks:      %d/%d\n", st.ChunksReceived, vault.ChunkCount)
	case vault.PhaseVerifyingFORS:
		fmt.Fprintf(w, "fors step:   %d\n", st.FORSStep)
	case vault.PhaseVerifyingWOTS:
		fmt.Fprintf(w, "wots step:   %d (layer %d)\n", st.WOTSStep, st.Layer)
	case vault.PhaseAborted:
		fmt.Fprintf(w, "reason:      %s\n", st.AbortReason)
	}
	if st.Lock == vault.Locked {
		fmt.Fprintf(w, "remaining:   %d steps\n", st.RemainingSteps)
	}
	if !st.LastTouch.IsZero() {
		fmt.Fprintf(w, "last touch:  %s\n", st.LastTouch.Format(time.RFC3339))
	}
}
