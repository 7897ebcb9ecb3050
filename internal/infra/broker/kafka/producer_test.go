package kafka

import (
	"testing"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigPassesSaramaValidation(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.True(t, cfg.Producer.Idempotent)
	assert.Equal(t, 1, cfg.Net.MaxOpenRequests, "idempotent producer needs one in-flight request")
	assert.Equal(t, sarama.WaitForAll, cfg.Producer.RequiredAcks)
	assert.True(t, cfg.Producer.Return.Successes)
}

func TestRecordHeaders(t *testing.T) {
	assert.Nil(t, recordHeaders(nil))

	hs := recordHeaders(map[string]string{"ce_type": "offer.accepted.v1"})
	require.Len(t, hs, 1)
	assert.Equal(t, []byte("ce_type"), hs[0].Key)
	assert.Equal(t, []byte("offer.accepted.v1"), hs[0].Value)
}
