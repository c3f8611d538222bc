package llm

import (
	"context"
	"strings"
)

// MockClient returns canned prose for tests and local runs without an API key.
type MockClient struct{}

func NewMockClient() *MockClient {
	return &MockClient{}
}

func (c *MockClient) Generate(_ context.Context, prompt string) (string, error) {
	// Recommendation prompts ask for a question list; answer prompts get a
	// short acknowledgement in the assistant's voice.
	if strings.Contains(prompt, "Pertanyaan rekomendasi") {
		return "Tampilkan ringkasan data kesehatan saya\n" +
			"Apakah ada catatan kunjungan terakhir?\n" +
			"Siapa dokter yang biasa menangani saya?\n" +
			"Golongan darah saya apa?", nil
	}
	return "Berdasarkan data yang tersedia, berikut informasi kesehatan Anda.", nil
}
