// Package checkpoint defines validator-signed Merkle tree checkpoints, their
// signing digest, their storage layout and a TTL cache in front of storages.
package checkpoint

import (
	"crypto/ecdsa"
	"encoding/binary"

	errorsmod "cosmossdk.io/errors"
	"github.com/bcp-innovations/hyperlane-cosmos/util"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	// SignatureLength is the length of an r||s||v signature.
	SignatureLength = 65

	signaturePrefix = "\x19Ethereum Signed Message:\n32"
	domainSuffix    = "HYPERLANE"
)

// Checkpoint commits to the root of a merkle tree hook at a given index.
type Checkpoint struct {
	MerkleTreeHook util.HexAddress
	Origin         uint32
	Root           common.Hash
	Index          uint32
}

// WithMessageID is a checkpoint bound to the message inserted at Index.
type WithMessageID struct {
	Checkpoint
	MessageID common.Hash
}

// SignedCheckpoint is a WithMessageID and a validator's signature over its
// signing digest.
type SignedCheckpoint struct {
	Value     WithMessageID
	Signature []byte
}

// DomainHash binds checkpoints to an origin domain and merkle tree hook.
func DomainHash(origin uint32, merkleTreeHook util.HexAddress) common.Hash {
	return crypto.Keccak256Hash(uint32Bytes(origin), merkleTreeHook[:], []byte(domainSuffix))
}

// SigningHash is the digest validators sign, before the EIP-191 prefix.
func (c WithMessageID) SigningHash() common.Hash {
	domain := DomainHash(c.Origin, c.MerkleTreeHook)
	return crypto.Keccak256Hash(domain[:], c.Root[:], uint32Bytes(c.Index), c.MessageID[:])
}

// EthSignedMessageHash is the EIP-191 prefixed digest that is actually
// passed to secp256k1.
func (c WithMessageID) EthSignedMessageHash() common.Hash {
	hash := c.SigningHash()
	return crypto.Keccak256Hash([]byte(signaturePrefix), hash[:])
}

// Sign signs the checkpoint and normalizes v to 27 or 28.
func Sign(c WithMessageID, key *ecdsa.PrivateKey) (*SignedCheckpoint, error) {
	hash := c.EthSignedMessageHash()
	sig, err := crypto.Sign(hash[:], key)
	if err != nil {
		return nil, err
	}
	sig[64] += 27
	return &SignedCheckpoint{Value: c, Signature: sig}, nil
}

// RecoverSigner returns the address that produced the signature.
func (s *SignedCheckpoint) RecoverSigner() (common.Address, error) {
	if len(s.Signature) != SignatureLength {
		return common.Address{}, errorsmod.Wrapf(ErrInvalidSignature, "signature length %d", len(s.Signature))
	}
	sig := make([]byte, SignatureLength)
	copy(sig, s.Signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}
	hash := s.Value.EthSignedMessageHash()
	pubKeyBytes, err := crypto.Ecrecover(hash[:], sig)
	if err != nil {
		return common.Address{}, errorsmod.Wrap(ErrInvalidSignature, err.Error())
	}
	pubKey, err := crypto.UnmarshalPubkey(pubKeyBytes)
	if err != nil {
		return common.Address{}, errorsmod.Wrap(ErrInvalidSignature, err.Error())
	}
	return crypto.PubkeyToAddress(*pubKey), nil
}

// VerifySigner checks that the signature was produced by expected.
func (s *SignedCheckpoint) VerifySigner(expected common.Address) error {
	signer, err := s.RecoverSigner()
	if err != nil {
		return err
	}
	if signer != expected {
		return errorsmod.Wrapf(ErrSignerMismatch, "expected %s, recovered %s", expected.Hex(), signer.Hex())
	}
	return nil
}

func uint32Bytes(v uint32) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, v)
	return buf
}
