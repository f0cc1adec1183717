package page

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bannerMarkup = `
<div id="cookie-banner" class="cookie-banner" hidden>
  <div id="cookie-banner-main">
    <button id="cookie-accept-all">Accept all</button>
  </div>
  <div id="cookie-settings" style="display: none">
    <form id="cookie-settings-form"></form>
  </div>
</div>`

func TestInjectMarkup_RegistersIDs(t *testing.T) {
	d := New("/index.html")

	require.NoError(t, d.InjectMarkup(bannerMarkup))

	for _, id := range []string{"cookie-banner", "cookie-banner-main", "cookie-accept-all", "cookie-settings", "cookie-settings-form"} {
		assert.True(t, d.HasElement(id), id)
	}
	assert.False(t, d.HasElement("cookie-reject-all"))

	assert.False(t, d.Visible("cookie-banner"))
	assert.True(t, d.Visible("cookie-banner-main"))
	assert.False(t, d.Visible("cookie-settings"))

	snap := d.Snapshot()
	require.Len(t, snap.Elements, 5)
	assert.Equal(t, "cookie-banner", snap.Elements[0].ID)
	assert.Equal(t, "div", snap.Elements[0].Tag)
	assert.Equal(t, "form", snap.Elements[4].Tag)
}

func TestSetVisible(t *testing.T) {
	d := New("/index.html")
	require.NoError(t, d.InjectMarkup(bannerMarkup))

	d.SetVisible("cookie-banner", true)
	d.SetVisible("does-not-exist", true)

	assert.True(t, d.Visible("cookie-banner"))
	assert.False(t, d.Visible("does-not-exist"))
	assert.False(t, d.HasElement("does-not-exist"))
}

func TestAssets(t *testing.T) {
	d := New("jobs/view.html")
	assert.Equal(t, "/jobs/view.html", d.Path())

	d.InjectStyle("../assets/css/cookie-banner.css", ".cookie-banner{}")
	d.InjectScript("../assets/js/cookie-banner.js", "void 0")

	assert.True(t, d.HasStyle("../assets/css/cookie-banner.css"))
	assert.False(t, d.HasStyle("assets/css/cookie-banner.css"))
	assert.True(t, d.HasScript("../assets/js/cookie-banner.js"))

	snap := d.Snapshot()
	assert.Equal(t, []string{"../assets/css/cookie-banner.css"}, snap.Styles)
	assert.Equal(t, []string{"../assets/js/cookie-banner.js"}, snap.Scripts)
}

func TestDepth(t *testing.T) {
	tests := []struct {
		path string
		want int
	}{
		{"", 0},
		{"/", 0},
		{"/index.html", 0},
		{"index.html", 0},
		{"/jobs/view.html", 1},
		{"/blog/2025/post.html", 2},
		{"/jobs/../pricing.html", 0},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Depth(tt.path))
		})
	}
}
