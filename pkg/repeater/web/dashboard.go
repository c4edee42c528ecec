package web

const dashboardHTML = `<!DOCTYPE html>
<html>
<head>
<title>Simplex Repeater</title>
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<style>
body { font-family: sans-serif; background: #1a1a2e; color: #eee; max-width: 640px; margin: 2em auto; }
h1 { font-size: 1.4em; }
.card { background: #16213e; border-radius: 8px; padding: 1em; margin-bottom: 1em; }
.on { color: #4ade80; } .off { color: #888; }
label { display: block; margin-top: 0.6em; }
input[type=range] { width: 100%; }
button { padding: 0.5em 1em; margin-top: 0.6em; }
td { padding: 0.2em 1em 0.2em 0; }
</style>
</head>
<body>
<h1>Simplex Repeater</h1>
<div class="card">
  <div>Carrier: <span id="carrier" class="off">-</span></div>
  <div>State: <span id="state">-</span></div>
  <div>Keyer: <span id="keyer" class="off">-</span></div>
</div>
<div class="card">
  <label>Input volume <span id="iv-val"></span>
    <input type="range" id="iv" min="0" max="2" step="0.1"></label>
  <label>Output volume <span id="ov-val"></span>
    <input type="range" id="ov" min="0" max="2" step="0.1"></label>
</div>
<div class="card">
  <label><input type="checkbox" id="id-enabled"> Automatic station ID</label>
  <label>Interval (seconds) <input type="number" id="id-interval" min="60" max="3600"></label>
  <button onclick="pushID()">Apply</button>
  <button onclick="triggerID()">Identify now</button>
  <span id="clip"></span>
</div>
<div class="card">
  <table>
    <tr><td>Receptions</td><td id="rx">0</td></tr>
    <tr><td>Transmissions</td><td id="tx">0</td></tr>
    <tr><td>Uptime</td><td id="uptime">0</td></tr>
  </table>
</div>
<script>
function refresh() {
  fetch('/api/status').then(function(r) { return r.json(); }).then(function(st) {
    set('carrier', st.carrier_active ? 'active' : 'quiet', st.carrier_active);
    set('state', st.state, st.state !== 'idle');
    set('keyer', st.keyer_available ? 'connected' : 'unavailable', st.keyer_available);
    if (document.activeElement.id !== 'iv') {
      document.getElementById('iv').value = st.input_volume;
    }
    if (document.activeElement.id !== 'ov') {
      document.getElementById('ov').value = st.output_volume;
    }
    document.getElementById('iv-val').textContent = st.input_volume.toFixed(1);
    document.getElementById('ov-val').textContent = st.output_volume.toFixed(1);
    document.getElementById('id-enabled').checked = st.id_enabled;
    document.getElementById('id-interval').placeholder = st.id_interval_seconds;
    document.getElementById('clip').textContent = st.id_clip_present ? 'clip found' : 'no clip (tone fallback)';
    document.getElementById('rx').textContent = st.stats.total_receptions;
    document.getElementById('tx').textContent = st.stats.total_transmissions;
    document.getElementById('uptime').textContent = st.stats.uptime_seconds + 's';
  });
}
function set(id, text, on) {
  var el = document.getElementById(id);
  el.textContent = text;
  el.className = on ? 'on' : 'off';
}
function post(url, body) {
  fetch(url, {method: 'POST', headers: {'Content-Type': 'application/json'}, body: JSON.stringify(body)});
}
document.getElementById('iv').addEventListener('change', function() { post('/api/volume', {input: parseFloat(this.value)}); });
document.getElementById('ov').addEventListener('change', function() { post('/api/volume', {output: parseFloat(this.value)}); });
function pushID() {
  var body = {enabled: document.getElementById('id-enabled').checked};
  var iv = parseInt(document.getElementById('id-interval').value);
  if (!isNaN(iv)) { body.interval = iv; }
  post('/api/id', body);
}
function triggerID() { post('/api/id', {trigger: true}); }
setInterval(refresh, 1000);
refresh();
</script>
</body>
</html>
`
