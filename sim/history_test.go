package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHistory_AppendOnly(t *testing.T) {
	h := NewHistory()
	assert.Equal(t, 0, h.Len())

	c := testCampaign(500)
	c.Balance = 450
	c.Clicks = 2
	h.Add(c, 1.44, 50, 2, 25)

	assert.Equal(t, 1, h.Len())
	last := h.Last()
	assert.Equal(t, c.CampaignID, last.CampaignID)
	assert.Equal(t, 450.0, last.Balance)
	assert.Equal(t, 1.44, last.Bid)
	assert.Equal(t, 50.0, last.Spend)
	assert.Equal(t, 2.0, last.StepClicks)

	// A later snapshot does not rewrite earlier rows.
	c.Balance = 400
	h.Add(c, 1.2, 50, 1, 30)
	assert.Equal(t, 2, h.Len())
	assert.Equal(t, 450.0, h.Rows()[0].Balance)
	assert.Equal(t, 400.0, h.Last().Balance)
}
