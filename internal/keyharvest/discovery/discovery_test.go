package discovery

import "testing"

func TestIsCandidateName(t *testing.T) {
	cases := map[string]bool{
		"Weixin":  true,
		"WeChat":  true,
		"Chrome":  false,
		"weixin":  false,
		"WeChatX": false,
	}
	for name, want := range cases {
		if got := isCandidateName(name); got != want {
			t.Errorf("isCandidateName(%q) = %v, want %v", name, got, want)
		}
	}
}
