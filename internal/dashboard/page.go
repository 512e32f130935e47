package dashboard

// indexTemplate is the single-page dashboard. The page is driven entirely
// by the WebSocket snapshot stream; it reloads if the connection drops.
const indexTemplate = `
<!DOCTYPE html>
<html>
<head>
    <title>Paper Trading Dashboard</title>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <style>
        body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 20px; background-color: #f5f5f5; }
        .container { max-width: 1400px; margin: 0 auto; }
        .header { background: linear-gradient(135deg, #1f77b4 0%, #10496e 100%); color: white; padding: 20px; border-radius: 10px; margin-bottom: 20px; }
        .header h1 { margin: 0; font-size: 2.2em; text-align: center; }
        .status-bar { display: flex; justify-content: space-between; align-items: center; background: white; padding: 15px; border-radius: 8px; margin-bottom: 20px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        .controls label { color: #666; font-weight: 500; margin-right: 6px; }
        .controls select { padding: 4px 8px; border: 1px solid #ccc; border-radius: 6px; margin-right: 16px; }
        .grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(320px, 1fr)); gap: 20px; }
        .card { background: white; border-radius: 10px; padding: 20px; box-shadow: 0 4px 6px rgba(0,0,0,0.1); }
        .card h3 { margin-top: 0; color: #333; border-bottom: 2px solid #eee; padding-bottom: 10px; }
        .metric { display: flex; justify-content: space-between; align-items: center; padding: 8px 0; border-bottom: 1px solid #eee; }
        .metric:last-child { border-bottom: none; }
        .metric-label { font-weight: 500; color: #666; }
        .metric-value { font-weight: bold; color: #333; }
        .metric-positive { color: #2ecc71; }
        .metric-negative { color: #e74c3c; }
        .metric-warning { color: #f39c12; }
        .trades-table { width: 100%; border-collapse: collapse; margin-top: 10px; }
        .trades-table th, .trades-table td { text-align: left; padding: 8px; border-bottom: 1px solid #eee; }
        .trades-table th { background-color: #f8f9fa; font-weight: 600; }
        .progress-bar { width: 100%; height: 20px; background-color: #eee; border-radius: 10px; overflow: hidden; margin: 10px 0; }
        .progress-fill { height: 100%; transition: width 0.3s ease; }
        .progress-safe { background-color: #2ecc71; }
        .progress-warning { background-color: #f39c12; }
        .progress-danger { background-color: #e74c3c; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>Paper Trading Dashboard</h1>
        </div>

        <div class="status-bar">
            <span id="connection-status">Connecting...</span>
            <span class="controls">
                <label for="lookback">Window</label>
                <select id="lookback">
                    <option value="">Default</option>
                    <option value="7">7 days</option>
                    <option value="30">30 days</option>
                    <option value="90">90 days</option>
                    <option value="180">180 days</option>
                    <option value="365">365 days</option>
                    <option value="all">All</option>
                </select>
                <label><input type="checkbox" id="demo-toggle"> Demo data</label>
            </span>
            <span id="last-update">Last Updated: --</span>
        </div>

        <div class="grid">
            <div class="card">
                <h3>Portfolio</h3>
                <div class="metric"><span class="metric-label">Total Equity</span><span class="metric-value" id="total-equity">$0</span></div>
                <div class="metric"><span class="metric-label">Cash</span><span class="metric-value" id="cash">$0</span></div>
                <div class="metric"><span class="metric-label">Invested</span><span class="metric-value" id="invested">$0</span></div>
                <div class="metric"><span class="metric-label">Total Return</span><span class="metric-value" id="total-return">0.00%</span></div>
            </div>

            <div class="card">
                <h3>Performance</h3>
                <div class="metric"><span class="metric-label">Annual Return</span><span class="metric-value" id="annual-return">0.00%</span></div>
                <div class="metric"><span class="metric-label">Sharpe Ratio</span><span class="metric-value" id="sharpe">0.00</span></div>
                <div class="metric"><span class="metric-label">Sortino Ratio</span><span class="metric-value" id="sortino">0.00</span></div>
                <div class="metric"><span class="metric-label">Volatility</span><span class="metric-value" id="volatility">0.0%</span></div>
                <div class="metric"><span class="metric-label">Max Drawdown</span><span class="metric-value" id="max-drawdown">0.00%</span></div>
                <div class="metric"><span class="metric-label">Calmar Ratio</span><span class="metric-value" id="calmar">0.00</span></div>
            </div>

            <div class="card">
                <h3>Risk</h3>
                <div class="metric"><span class="metric-label">Exposure</span><span class="metric-value" id="exposure-text">0% / 0%</span></div>
                <div class="progress-bar"><div class="progress-fill progress-safe" id="exposure-progress"></div></div>
                <div class="metric"><span class="metric-label">Positions</span><span class="metric-value" id="positions-text">0 / 0</span></div>
                <div class="progress-bar"><div class="progress-fill progress-safe" id="positions-progress"></div></div>
                <div class="metric"><span class="metric-label">Current Drawdown</span><span class="metric-value" id="current-drawdown">0.00%</span></div>
                <div class="metric"><span class="metric-label">Drawdown Limit</span><span class="metric-value" id="drawdown-limit">0.0%</span></div>
            </div>

            <div class="card">
                <h3>Trading</h3>
                <div class="metric"><span class="metric-label">Total Trades</span><span class="metric-value" id="total-trades">0</span></div>
                <div class="metric"><span class="metric-label">Win Rate</span><span class="metric-value" id="win-rate">0.0%</span></div>
                <div class="metric"><span class="metric-label">Total P&amp;L</span><span class="metric-value" id="total-pnl">$0</span></div>
                <div class="metric"><span class="metric-label">Avg P&amp;L</span><span class="metric-value" id="avg-pnl">$0</span></div>
                <table class="trades-table">
                    <thead><tr><th>Date</th><th>Action</th><th>Symbol</th><th>P&amp;L</th></tr></thead>
                    <tbody id="trades-body">
                        <tr><td colspan="4" style="text-align: center; color: #666;">No trades yet</td></tr>
                    </tbody>
                </table>
            </div>
        </div>
    </div>

    <script>
        const params = new URLSearchParams(location.search);
        const lookbackSelect = document.getElementById('lookback');
        const demoToggle = document.getElementById('demo-toggle');
        lookbackSelect.value = params.get('days') || '';
        demoToggle.checked = params.get('demo') === '1';

        // Changing the window or demo mode reloads with new query
        // parameters; the WebSocket reconnects with them.
        function applyControls() {
            const next = new URLSearchParams();
            if (lookbackSelect.value) next.set('days', lookbackSelect.value);
            if (demoToggle.checked) next.set('demo', '1');
            location.search = next.toString();
        }
        lookbackSelect.onchange = applyControls;
        demoToggle.onchange = applyControls;

        const ws = new WebSocket('ws://' + location.host + '/ws' + location.search);

        ws.onmessage = function(event) {
            updateDashboard(JSON.parse(event.data));
        };
        ws.onopen = function() {
            document.getElementById('connection-status').textContent = 'Live';
        };
        ws.onclose = function() {
            document.getElementById('connection-status').textContent = 'Disconnected';
            setTimeout(() => location.reload(), 5000);
        };

        function pct(v) { return (v * 100).toFixed(2) + '%'; }
        function usd(v) { return '$' + v.toLocaleString(undefined, {maximumFractionDigits: 0}); }
        function signed(el, v, format) {
            el.textContent = format(v);
            el.className = 'metric-value ' + (v >= 0 ? 'metric-positive' : 'metric-negative');
        }
        function progress(el, ratio) {
            const value = Math.min(ratio * 100, 100);
            el.style.width = value + '%';
            el.className = 'progress-fill ' + (value >= 100 ? 'progress-danger' : value > 80 ? 'progress-warning' : 'progress-safe');
        }

        function updateDashboard(data) {
            document.getElementById('last-update').textContent = 'Last Updated: ' + new Date(data.timestamp).toLocaleTimeString();

            document.getElementById('total-equity').textContent = usd(data.summary.total_equity);
            document.getElementById('cash').textContent = usd(data.summary.cash);
            document.getElementById('invested').textContent = usd(data.summary.invested);
            signed(document.getElementById('total-return'), data.summary.total_return_pct, pct);

            signed(document.getElementById('annual-return'), data.performance.annual_return_pct, pct);
            document.getElementById('sharpe').textContent = data.performance.sharpe_ratio.toFixed(2);
            document.getElementById('sortino').textContent = data.performance.sortino_ratio > 1e6 ? '∞' : data.performance.sortino_ratio.toFixed(2);
            document.getElementById('volatility').textContent = pct(data.performance.volatility);
            document.getElementById('max-drawdown').textContent = pct(data.performance.max_drawdown);
            document.getElementById('calmar').textContent = data.performance.calmar_ratio.toFixed(2);

            document.getElementById('exposure-text').textContent = pct(data.risk.portfolio_exposure) + ' / ' + pct(data.risk.max_exposure);
            progress(document.getElementById('exposure-progress'), data.risk.portfolio_exposure / data.risk.max_exposure);
            document.getElementById('positions-text').textContent = data.risk.num_positions + ' / ' + data.risk.max_positions;
            progress(document.getElementById('positions-progress'), data.risk.num_positions / data.risk.max_positions);
            document.getElementById('current-drawdown').textContent = pct(data.risk.current_drawdown);
            document.getElementById('drawdown-limit').textContent = pct(data.risk.max_drawdown_limit);

            document.getElementById('total-trades').textContent = data.trade_stats.total_trades;
            document.getElementById('win-rate').textContent = pct(data.trade_stats.win_rate);
            signed(document.getElementById('total-pnl'), data.trade_stats.total_pnl, usd);
            signed(document.getElementById('avg-pnl'), data.trade_stats.avg_pnl, usd);
            updateTradesTable(data.trades || []);
        }

        function updateTradesTable(trades) {
            const tbody = document.getElementById('trades-body');
            tbody.innerHTML = '';

            if (trades.length === 0) {
                tbody.innerHTML = '<tr><td colspan="4" style="text-align: center; color: #666;">No trades yet</td></tr>';
                return;
            }

            for (const trade of trades.slice(-10).reverse()) {
                const row = document.createElement('tr');
                const pnl = trade.action === 'SELL' ? usd(trade.pnl) : '-';
                row.innerHTML = '<td>' + trade.date.slice(0, 10) + '</td>' +
                    '<td>' + trade.action + '</td>' +
                    '<td>' + trade.symbol + '</td>' +
                    '<td class="' + (trade.pnl >= 0 ? 'metric-positive' : 'metric-negative') + '">' + pnl + '</td>';
                tbody.appendChild(row);
            }
        }
    </script>
</body>
</html>
`
