package route

// Builtin returns the sample route table shipped with the simulator.
// Each call returns a fresh table that the caller may modify.
func Builtin() Table {
	return Table{
		"google.com": {
			{IP: "192.168.1.1", Name: "home-router.local", Time: 1.2},
			{IP: "10.0.0.1", Name: "gateway.isp-provider.net", Time: 8.4},
			{IP: "72.14.215.85", Name: "backbone-tokyo.google.net", Time: 12.1},
			{IP: "142.250.62.1", Name: "edge-nrt.1e100.net", Time: 14.8},
			{IP: "142.250.196.110", Name: "google.com", Time: 15.3},
		},
		"github.com": {
			{IP: "192.168.1.1", Name: "home-router.local", Time: 1.1},
			{IP: "10.0.0.1", Name: "gateway.isp-provider.net", Time: 7.9},
			{IP: "203.178.141.1", Name: "international-gw.jpix.ad.jp", Time: 18.5},
			{IP: "129.250.2.1", Name: "backbone-pacific.ntt.net", Time: 96.3},
			{IP: "129.250.3.17", Name: "ae-1.r21.sttlwa01.us.bb.gin.ntt.net", Time: 112.7},
			{IP: "140.82.112.1", Name: "edge-sea.github.net", Time: 121.4},
			{IP: "140.82.112.3", Name: "github.com", Time: 122.0},
		},
		"example.com": {
			{IP: "192.168.1.1", Name: "my-router.local", Time: 1.0},
			{IP: "10.0.0.1", Name: "gateway.isp-provider.net", Time: 9.2},
			{IP: "93.184.216.34", Name: "example.com", Time: 105.6},
		},
		"yahoo.co.jp": {
			{IP: "192.168.1.1", Name: "home-router.local", Time: 1.3},
			{IP: "10.0.0.1", Name: "gateway.isp-provider.net", Time: 6.8},
			{IP: "210.173.176.1", Name: "ix-dojima.jpnap.net", Time: 9.9},
			{IP: "182.22.25.252", Name: "yahoo.co.jp", Time: 11.4},
		},
		"wikipedia.org": {
			{IP: "192.168.1.1", Name: "home-router.local", Time: 1.2},
			{IP: "10.0.0.1", Name: "gateway.isp-provider.net", Time: 8.0},
			{IP: "203.178.141.1", Name: "international-gw.jpix.ad.jp", Time: 19.1},
			{IP: "80.81.192.1", Name: "backbone-eu.telia.net", Time: 210.5},
			{IP: "185.15.59.224", Name: "cdn-ams.wikimedia.org", Time: 231.2},
			{IP: "185.15.59.1", Name: "cr1-esams.wikimedia.org", Time: 233.9},
			{IP: "185.15.58.224", Name: "wikipedia.org", Time: 234.6},
		},
	}
}
